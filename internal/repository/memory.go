package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skillswap/client/internal/domain"
)

// MemoryRepository implements domain.AccountRepository and
// domain.ConnectionRepository in process memory
type MemoryRepository struct {
	mu          sync.RWMutex
	accounts    map[int64]*memAccount
	connections map[int64]*domain.Connection
	nextUser    int64
	nextConn    int64
}

type memAccount struct {
	domain.Account
	ratingSum int
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:    make(map[int64]*memAccount),
		connections: make(map[int64]*domain.Connection),
	}
}

func (r *MemoryRepository) CreateAccount(ctx context.Context, params domain.CreateAccountParams) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == params.Email {
			return nil, domain.ErrUserAlreadyExists
		}
	}

	r.nextUser++
	now := time.Now().UTC()
	a := &memAccount{Account: domain.Account{
		Profile: domain.Profile{
			ID:              r.nextUser,
			FirstName:       params.FirstName,
			LastName:        params.LastName,
			Email:           params.Email,
			SkillsOffered:   []string{},
			SkillsWanted:    []string{},
			Availability:    domain.AvailabilityFlexible,
			IsProfilePublic: true,
		},
		PasswordHash:      params.PasswordHash,
		EmailVerified:     params.EmailVerified,
		VerificationToken: params.VerificationToken,
		Roles:             append([]string(nil), params.Roles...),
		CreatedAt:         now,
		UpdatedAt:         now,
	}}
	r.accounts[a.ID] = a
	return a.snapshot(), nil
}

func (r *MemoryRepository) GetAccountByID(ctx context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return a.snapshot(), nil
}

func (r *MemoryRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Email == email {
			return a.snapshot(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *MemoryRepository) GetAccountByVerificationToken(ctx context.Context, token string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	for _, a := range r.accounts {
		if a.VerificationToken == token {
			return a.snapshot(), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// VerificationToken returns the pending token of an account, for tests and
// the devserver's console mailer
func (r *MemoryRepository) VerificationToken(email string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Email == email && a.VerificationToken != "" {
			return a.VerificationToken, true
		}
	}
	return "", false
}

func (r *MemoryRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	return r.update(id, func(a *memAccount) {
		a.EmailVerified = true
	})
}

func (r *MemoryRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetAccountByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *MemoryRepository) UpdateProfile(ctx context.Context, id int64, req domain.UpdateProfileRequest) (*domain.Account, error) {
	var out *domain.Account
	err := r.update(id, func(a *memAccount) {
		if req.FirstName != nil {
			a.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			a.LastName = *req.LastName
		}
		if req.Bio != nil {
			a.Bio = *req.Bio
		}
		if req.Location != nil {
			a.Location = *req.Location
		}
		if req.Availability != nil {
			a.Availability = *req.Availability
		}
		if req.IsProfilePublic != nil {
			a.IsProfilePublic = *req.IsProfilePublic
		}
		out = a.snapshot()
	})
	return out, err
}

func (r *MemoryRepository) UpdateSkills(ctx context.Context, id int64, offered, wanted []string) (*domain.Account, error) {
	var out *domain.Account
	err := r.update(id, func(a *memAccount) {
		a.SkillsOffered = append([]string{}, offered...)
		a.SkillsWanted = append([]string{}, wanted...)
		out = a.snapshot()
	})
	return out, err
}

func (r *MemoryRepository) UpdatePhoto(ctx context.Context, id int64, url string) (*domain.Account, error) {
	var out *domain.Account
	err := r.update(id, func(a *memAccount) {
		a.ProfilePhoto = url
		out = a.snapshot()
	})
	return out, err
}

func (r *MemoryRepository) AddRating(ctx context.Context, id int64, rating int) (*domain.Account, error) {
	var out *domain.Account
	err := r.update(id, func(a *memAccount) {
		a.ratingSum += rating
		a.TotalReviews++
		out = a.snapshot()
	})
	return out, err
}

func (r *MemoryRepository) IncrementCompletedSwaps(ctx context.Context, ids ...int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if _, ok := r.accounts[id]; !ok {
			return domain.ErrUserNotFound
		}
	}
	for _, id := range ids {
		r.accounts[id].CompletedSwaps++
	}
	return nil
}

func (r *MemoryRepository) SearchProfiles(ctx context.Context, params domain.SearchParams) ([]*domain.Account, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(params.Search))
	var matches []*domain.Account
	for _, a := range r.accounts {
		if !a.IsProfilePublic || !a.EmailVerified {
			continue
		}
		if params.Availability != "" && a.Availability != params.Availability {
			continue
		}
		if needle != "" && !a.matches(needle) {
			continue
		}
		matches = append(matches, a.snapshot())
	}

	sort.Slice(matches, func(i, j int) bool {
		ri, rj := rating(matches[i]), rating(matches[j])
		if ri != rj {
			return ri > rj
		}
		return matches[i].ID < matches[j].ID
	})

	total := len(matches)
	start := params.Page * params.Size
	if start >= total {
		return []*domain.Account{}, total, nil
	}
	end := start + params.Size
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (r *MemoryRepository) CountActiveAccounts(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.accounts {
		if a.EmailVerified {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountSkillsOffered(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	distinct := make(map[string]bool)
	for _, a := range r.accounts {
		for _, s := range a.SkillsOffered {
			distinct[strings.ToLower(s)] = true
		}
	}
	return len(distinct), nil
}

func (r *MemoryRepository) CreateConnection(ctx context.Context, senderID, receiverID int64, message string) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextConn++
	c := &domain.Connection{
		ID:         r.nextConn,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		Status:     domain.RequestStatusPending,
		CreatedAt:  domain.Now(),
	}
	r.connections[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) GetConnectionByID(ctx context.Context, id int64) (*domain.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.connections[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) ConnectionExists(ctx context.Context, a, b int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.connections {
		between := (c.SenderID == a && c.ReceiverID == b) || (c.SenderID == b && c.ReceiverID == a)
		if between && c.Status != domain.RequestStatusDeclined {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) UpdateConnectionStatus(ctx context.Context, id int64, status domain.RequestStatus) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connections[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	if !c.Status.CanTransition(status) {
		return nil, domain.ErrRequestProcessed
	}
	now := domain.Now()
	c.Status = status
	c.RespondedAt = &now
	cp := *c
	return &cp, nil
}

func (r *MemoryRepository) ListReceived(ctx context.Context, receiverID int64) ([]*domain.Connection, error) {
	return r.listConnections(func(c *domain.Connection) bool { return c.ReceiverID == receiverID }), nil
}

func (r *MemoryRepository) ListSent(ctx context.Context, senderID int64) ([]*domain.Connection, error) {
	return r.listConnections(func(c *domain.Connection) bool { return c.SenderID == senderID }), nil
}

func (r *MemoryRepository) CountConnections(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections), nil
}

func (r *MemoryRepository) CountByStatus(ctx context.Context, status domain.RequestStatus) (int, error) {
	return len(r.listConnections(func(c *domain.Connection) bool { return c.Status == status })), nil
}

func (r *MemoryRepository) listConnections(keep func(*domain.Connection) bool) []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Connection, 0)
	for _, c := range r.connections {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	// newest first; ids are monotonic
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r *MemoryRepository) update(id int64, fn func(*memAccount)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(a)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *memAccount) matches(needle string) bool {
	fields := []string{a.FirstName, a.LastName, a.FirstName + " " + a.LastName, a.Bio, a.Location}
	fields = append(fields, a.SkillsOffered...)
	fields = append(fields, a.SkillsWanted...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func (a *memAccount) snapshot() *domain.Account {
	out := a.Account
	out.Profile = *a.Profile.Clone()
	out.Roles = append([]string(nil), a.Roles...)
	if a.TotalReviews > 0 {
		avg := float64(a.ratingSum) / float64(a.TotalReviews)
		out.AverageRating = &avg
	}
	return &out
}

func rating(a *domain.Account) float64 {
	if a.AverageRating == nil {
		return -1
	}
	return *a.AverageRating
}
