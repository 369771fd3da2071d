package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/pkg/response"
	"github.com/skillswap/client/pkg/validator"
	"go.uber.org/zap"
)

// businessErrors are reported to the client as 400 with their message
var businessErrors = []error{
	domain.ErrUserNotFound,
	domain.ErrUserAlreadyExists,
	domain.ErrInvalidCredentials,
	domain.ErrEmailNotVerified,
	domain.ErrVerificationTokenUsed,
	domain.ErrRequestNotFound,
	domain.ErrReceiverNotFound,
	domain.ErrSelfConnection,
	domain.ErrConnectionExists,
	domain.ErrReceiverUnavailable,
	domain.ErrRequestProcessed,
	domain.ErrNotRequestReceiver,
	domain.ErrInvalidRating,
	domain.ErrSelfRating,
	domain.ErrEmptyPhoto,
	domain.ErrPhotoTooLarge,
	domain.ErrUnsupportedPhotoFormat,
}

// writeError maps service errors to {success:false} responses. Unknown
// errors are logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, op string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.BadRequest(w, verrs.Error())
		return
	}
	for _, known := range businessErrors {
		if errors.Is(err, known) {
			response.BadRequest(w, known.Error())
			return
		}
	}
	logger.Error(op+" failed", zap.Error(err))
	response.InternalError(w, "Something went wrong, please try again")
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}
