package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/middleware"
	"github.com/skillswap/client/pkg/response"
	"github.com/skillswap/client/pkg/validator"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 6
	maxPageSize     = 50
)

// ProfileHandler serves the directory and the member's own profile
type ProfileHandler struct {
	profiles *domain.ProfileService
	logger   *zap.Logger
}

func NewProfileHandler(profiles *domain.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// List handles GET /api/profiles
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	// unknown availability values are ignored rather than rejected
	availability, ok := domain.ParseAvailability(q.Get("availability"))
	if !ok {
		availability = ""
	}

	result, err := h.profiles.Search(r.Context(), domain.SearchParams{
		Page:         page,
		Size:         size,
		Search:       q.Get("search"),
		Availability: availability,
	})
	if err != nil {
		writeError(w, h.logger, err, "profile search")
		return
	}
	response.OK(w, result)
}

// Get handles GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}

	profile, err := h.profiles.PublicProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.NotFound(w)
			return
		}
		writeError(w, h.logger, err, "get profile")
		return
	}
	response.OK(w, profile)
}

// Stats handles GET /api/stats
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profiles.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "stats")
		return
	}
	response.OK(w, stats)
}

// Me handles GET /api/profile/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	profile, err := h.profiles.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.NotFound(w)
			return
		}
		writeError(w, h.logger, err, "get own profile")
		return
	}
	response.OK(w, profile)
}

// Update handles PUT /api/profile/me
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	errs := validator.ValidateProfile(req.FirstName, req.LastName, req.Bio, req.Location)
	if req.Availability != nil {
		a, ok := domain.ParseAvailability(string(*req.Availability))
		if !ok || a == "" {
			errs.Add("availability", "must be one of WEEKEND, WORKING, FLEXIBLE")
		} else {
			req.Availability = &a
		}
	}
	if errs.HasErrors() {
		response.BadRequest(w, errs.Error())
		return
	}

	if err := h.profiles.UpdateProfile(r.Context(), userID, req); err != nil {
		writeError(w, h.logger, err, "update profile")
		return
	}
	response.Success(w, "Profile updated successfully")
}

// UpdateSkills handles POST /api/profile/me/skills
func (h *ProfileHandler) UpdateSkills(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req domain.UpdateSkillsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.profiles.UpdateSkills(r.Context(), userID, req); err != nil {
		writeError(w, h.logger, err, "update skills")
		return
	}
	response.Success(w, "Skills updated successfully")
}

// UploadPhoto handles POST /api/profile/me/photo with a multipart "photo" field
func (h *ProfileHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxPhotoBytes+1<<20)
	if err := r.ParseMultipartForm(domain.MaxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, domain.ErrPhotoTooLarge.Error())
			return
		}
		response.BadRequest(w, domain.ErrEmptyPhoto.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		response.BadRequest(w, domain.ErrEmptyPhoto.Error())
		return
	}
	defer file.Close()

	url, err := h.profiles.UpdatePhoto(r.Context(), userID, file, header.Filename)
	if err != nil {
		writeError(w, h.logger, err, "upload photo")
		return
	}

	h.logger.Info("profile photo updated", zap.Int64("user_id", userID), zap.String("url", url))
	response.Success(w, "Profile photo updated successfully")
}

// Rate handles POST /api/profiles/{id}/rate
func (h *ProfileHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	id, ok := idParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}

	var req domain.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if _, err := h.profiles.Rate(r.Context(), userID, id, req); err != nil {
		writeError(w, h.logger, err, "rate profile")
		return
	}
	response.Success(w, "Rating submitted successfully")
}
