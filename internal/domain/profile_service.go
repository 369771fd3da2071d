package domain

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/skillswap/client/internal/storage"
	"go.uber.org/zap"
)

// MaxPhotoBytes is the largest accepted profile photo
const MaxPhotoBytes = 5 << 20

// ProfileService serves the directory and the member's own profile
type ProfileService struct {
	accounts    AccountRepository
	connections ConnectionRepository
	photos      storage.PhotoStorage
	logger      *zap.Logger
}

func NewProfileService(accounts AccountRepository, connections ConnectionRepository, photos storage.PhotoStorage, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		accounts:    accounts,
		connections: connections,
		photos:      photos,
		logger:      logger,
	}
}

// Search returns one page of public profiles ordered by rating
func (s *ProfileService) Search(ctx context.Context, params SearchParams) (*ProfilePage, error) {
	if params.Size <= 0 {
		params.Size = 6
	}
	if params.Page < 0 {
		params.Page = 0
	}
	params.Search = strings.TrimSpace(params.Search)

	accounts, total, err := s.accounts.SearchProfiles(ctx, params)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(accounts))
	for _, a := range accounts {
		p := a.PublicProfile()
		p.Email = ""
		profiles = append(profiles, p)
	}

	totalPages := (total + params.Size - 1) / params.Size
	return &ProfilePage{
		Profiles:      profiles,
		TotalElements: total,
		TotalPages:    totalPages,
		CurrentPage:   params.Page,
		Size:          params.Size,
		HasNext:       params.Page+1 < totalPages,
		HasPrevious:   params.Page > 0,
	}, nil
}

// PublicProfile returns a public profile or ErrUserNotFound
func (s *ProfileService) PublicProfile(ctx context.Context, id int64) (*Profile, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !account.IsProfilePublic || !account.EmailVerified {
		return nil, ErrUserNotFound
	}
	p := account.PublicProfile()
	p.Email = ""
	return &p, nil
}

// Me returns the full profile of the member
func (s *ProfileService) Me(ctx context.Context, userID int64) (*Profile, error) {
	account, err := s.accounts.GetAccountByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := account.PublicProfile()
	return &p, nil
}

// Stats returns the platform counters
func (s *ProfileService) Stats(ctx context.Context) (*Stats, error) {
	members, err := s.accounts.CountActiveAccounts(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := s.connections.CountByStatus(ctx, RequestStatusAccepted)
	if err != nil {
		return nil, err
	}
	skills, err := s.accounts.CountSkillsOffered(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.connections.CountConnections(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		ActiveMembers:           members,
		SuccessfulMatches:       matches,
		TotalSkillsOffered:      skills,
		TotalConnectionRequests: requests,
	}, nil
}

// UpdateProfile applies the non-nil scalar fields
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) error {
	_, err := s.accounts.UpdateProfile(ctx, userID, req)
	return err
}

// UpdateSkills replaces both skill lists. Blank and duplicate entries are dropped.
func (s *ProfileService) UpdateSkills(ctx context.Context, userID int64, req UpdateSkillsRequest) error {
	_, err := s.accounts.UpdateSkills(ctx, userID, CleanSkills(req.SkillsOffered), CleanSkills(req.SkillsWanted))
	return err
}

// UpdatePhoto validates and stores a new photo, replacing the previous one
func (s *ProfileService) UpdatePhoto(ctx context.Context, userID int64, photo io.Reader, filename string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(photo, MaxPhotoBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyPhoto
	}
	if len(data) > MaxPhotoBytes {
		return "", ErrPhotoTooLarge
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedPhotoFormat
	}

	account, err := s.accounts.GetAccountByID(ctx, userID)
	if err != nil {
		return "", err
	}
	previous := account.ProfilePhoto

	url, err := s.photos.SavePhoto(ctx, userID, bytes.NewReader(data), filename, contentType)
	if err != nil {
		return "", err
	}
	if _, err := s.accounts.UpdatePhoto(ctx, userID, url); err != nil {
		return "", err
	}

	if previous != "" {
		if err := s.photos.DeletePhoto(ctx, previous); err != nil {
			s.logger.Warn("failed to delete previous photo", zap.String("url", previous), zap.Error(err))
		}
	}
	return url, nil
}

// Rate records a 1..5 rating for another member's profile
func (s *ProfileService) Rate(ctx context.Context, raterID, profileID int64, req RateRequest) (*Profile, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if raterID == profileID {
		return nil, ErrSelfRating
	}
	account, err := s.accounts.AddRating(ctx, profileID, req.Rating)
	if err != nil {
		return nil, err
	}
	p := account.PublicProfile()
	p.Email = ""
	return &p, nil
}

// CleanSkills trims entries and drops blanks and case-insensitive duplicates
func CleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
