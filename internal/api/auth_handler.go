package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/pkg/response"
	"github.com/skillswap/client/pkg/validator"
	"go.uber.org/zap"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService         *domain.AuthService
	requireVerification bool
	logger              *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *domain.AuthService, requireVerification bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		requireVerification: requireVerification,
		logger:              logger,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	// the confirmation is checked by the form, not sent
	if errs := validator.ValidateRegistration(req.FirstName, req.LastName, req.Email, req.Password, req.Password); errs.HasErrors() {
		response.BadRequest(w, errs.Error())
		return
	}
	req.Email = validator.SanitizeEmail(req.Email)

	account, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err, "registration")
		return
	}

	h.logger.Info("member registered", zap.Int64("user_id", account.ID))
	if h.requireVerification {
		response.Success(w, "User registered successfully. Please check your email for verification.")
		return
	}
	response.Success(w, "User registered successfully. You can now log in.")
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, domain.LoginResponse{Message: "Invalid request body"})
		return
	}

	req.Email = validator.SanitizeEmail(req.Email)
	if !validator.ValidateEmail(req.Email) || req.Password == "" {
		response.JSON(w, http.StatusBadRequest, domain.LoginResponse{Message: domain.ErrInvalidCredentials.Error()})
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredentials, domain.ErrEmailNotVerified:
			response.JSON(w, http.StatusBadRequest, domain.LoginResponse{Message: err.Error()})
		default:
			h.logger.Error("login failed", zap.Error(err), zap.String("email", req.Email))
			response.InternalError(w, "Login failed, please try again")
		}
		return
	}

	response.OK(w, domain.LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   result.AccessToken,
		User:    result.User,
	})
}

// VerifyEmail handles GET /api/auth/verify-email/{token}
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		response.BadRequest(w, domain.ErrVerificationTokenUsed.Error())
		return
	}

	alreadyVerified, err := h.authService.VerifyEmail(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err, "email verification")
		return
	}
	if alreadyVerified {
		response.Success(w, "Your email is already verified! You can log in now.")
		return
	}
	response.Success(w, "Email verified successfully! You can now log in.")
}
