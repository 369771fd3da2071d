// Package editor holds the committed and draft copies of the member's own
// profile and moves between viewing and editing.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/skillswap/client/internal/client"
	"github.com/skillswap/client/internal/domain"
	"github.com/skillswap/client/internal/photo"
	"github.com/skillswap/client/pkg/validator"
	"go.uber.org/zap"
)

var (
	ErrNotLoaded  = errors.New("profile not loaded")
	ErrNotEditing = errors.New("profile is not being edited")
	ErrSaving     = errors.New("profile is being saved")
)

// State of the editor
type State int

const (
	StateViewing State = iota
	StateEditing
	StateSaving
	StateDiscarding
)

func (s State) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateDiscarding:
		return "discarding"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Editor is safe for concurrent use. While a save is in flight the draft
// cannot be changed.
type Editor struct {
	api    ProfileAPI
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	committed *domain.Profile
	draft     *domain.Profile
	lastErr   error
}

// New creates an editor. logger may be nil.
func New(api ProfileAPI, logger *zap.Logger) *Editor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{api: api, logger: logger}
}

// Load fetches the member's profile into the committed copy. A draft in
// progress is kept.
func (e *Editor) Load(ctx context.Context) (*domain.Profile, error) {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return nil, ErrSaving
	}
	e.mu.Unlock()

	p, err := e.api.GetMe(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.committed = p.Clone()
	if e.state != StateEditing {
		e.state = StateViewing
	}
	return p, nil
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Committed returns a copy of the last saved profile
func (e *Editor) Committed() *domain.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.committed.Clone()
}

// Draft returns a copy of the draft, or nil when not editing
func (e *Editor) Draft() *domain.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateEditing && e.state != StateSaving {
		return nil
	}
	return e.draft.Clone()
}

// LastError is the error of the last failed save
func (e *Editor) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Edit starts editing with a deep copy of the committed profile. Calling it
// while already editing keeps the current draft.
func (e *Editor) Edit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateEditing:
		return nil
	case StateSaving:
		return ErrSaving
	}
	if e.committed == nil {
		return ErrNotLoaded
	}
	e.draft = e.committed.Clone()
	e.lastErr = nil
	e.state = StateEditing
	return nil
}

// Discard drops the draft and returns to viewing. No call is made.
func (e *Editor) Discard() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateSaving:
		return ErrSaving
	case StateViewing:
		return nil
	}
	e.state = StateDiscarding
	e.draft = e.committed.Clone()
	e.lastErr = nil
	e.state = StateViewing
	return nil
}

func (e *Editor) update(fn func(d *domain.Profile) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateSaving {
		return ErrSaving
	}
	if e.state != StateEditing || e.draft == nil {
		return ErrNotEditing
	}
	return fn(e.draft)
}

func (e *Editor) SetFirstName(v string) error {
	return e.update(func(d *domain.Profile) error { d.FirstName = v; return nil })
}

func (e *Editor) SetLastName(v string) error {
	return e.update(func(d *domain.Profile) error { d.LastName = v; return nil })
}

func (e *Editor) SetBio(v string) error {
	return e.update(func(d *domain.Profile) error { d.Bio = v; return nil })
}

func (e *Editor) SetLocation(v string) error {
	return e.update(func(d *domain.Profile) error { d.Location = v; return nil })
}

// SetAvailability accepts weekend, working or flexible in any case
func (e *Editor) SetAvailability(v string) error {
	a, ok := domain.ParseAvailability(v)
	if !ok || a == "" {
		return client.Validation(fmt.Sprintf("Invalid availability %q", v))
	}
	return e.update(func(d *domain.Profile) error { d.Availability = a; return nil })
}

func (e *Editor) SetPublic(v bool) error {
	return e.update(func(d *domain.Profile) error { d.IsProfilePublic = v; return nil })
}

// AddSkillOffered appends a trimmed skill. Blank input and case-insensitive
// duplicates are ignored.
func (e *Editor) AddSkillOffered(skill string) error {
	return e.update(func(d *domain.Profile) error {
		d.SkillsOffered = addSkill(d.SkillsOffered, skill)
		return nil
	})
}

func (e *Editor) AddSkillWanted(skill string) error {
	return e.update(func(d *domain.Profile) error {
		d.SkillsWanted = addSkill(d.SkillsWanted, skill)
		return nil
	})
}

// RemoveSkillOffered removes the skill at index i; out of range is a no-op
func (e *Editor) RemoveSkillOffered(i int) error {
	return e.update(func(d *domain.Profile) error {
		d.SkillsOffered = removeAt(d.SkillsOffered, i)
		return nil
	})
}

func (e *Editor) RemoveSkillWanted(i int) error {
	return e.update(func(d *domain.Profile) error {
		d.SkillsWanted = removeAt(d.SkillsWanted, i)
		return nil
	})
}

// Save sends the scalar fields and then both skill lists. Only when both
// succeed does the draft become the committed profile. On failure the
// editor stays in editing with the draft untouched.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return ErrSaving
	}
	if e.state != StateEditing || e.draft == nil {
		e.mu.Unlock()
		return ErrNotEditing
	}
	snapshot := e.draft.Clone()
	if errs := validateDraft(snapshot); errs.HasErrors() {
		e.lastErr = errs
		e.mu.Unlock()
		return errs
	}
	e.state = StateSaving
	e.lastErr = nil
	e.mu.Unlock()

	err := e.push(ctx, snapshot)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateEditing
		e.lastErr = err
		e.logger.Info("profile save failed", zap.Int64("profile_id", snapshot.ID), zap.Error(err))
		return err
	}
	e.committed = snapshot
	e.draft = snapshot.Clone()
	e.state = StateViewing
	return nil
}

func (e *Editor) push(ctx context.Context, p *domain.Profile) error {
	firstName := strings.TrimSpace(p.FirstName)
	lastName := strings.TrimSpace(p.LastName)
	bio := p.Bio
	location := strings.TrimSpace(p.Location)
	public := p.IsProfilePublic

	req := domain.UpdateProfileRequest{
		FirstName:       &firstName,
		LastName:        &lastName,
		Bio:             &bio,
		Location:        &location,
		IsProfilePublic: &public,
	}
	if p.Availability != "" {
		a := p.Availability
		req.Availability = &a
	}
	if err := e.api.UpdateProfile(ctx, req); err != nil {
		return err
	}

	skills := domain.UpdateSkillsRequest{
		SkillsOffered: nonNil(p.SkillsOffered),
		SkillsWanted:  nonNil(p.SkillsWanted),
	}
	return e.api.UpdateSkills(ctx, skills)
}

// UploadPhoto prepares and uploads a new profile photo, then reloads the
// profile to pick up the URL chosen by the server. It does not depend on
// the edit state; a draft in progress only gets the new photo URL.
func (e *Editor) UploadPhoto(ctx context.Context, filename string, r io.Reader) (string, error) {
	prepared, err := photo.Prepare(r, filename)
	if err != nil {
		return "", err
	}

	err = e.api.UploadPhoto(ctx, client.File{
		Field:       "photo",
		Filename:    prepared.Filename,
		ContentType: prepared.ContentType,
		Data:        prepared.Data,
	})
	if err != nil {
		return "", err
	}

	fresh, err := e.api.GetMe(ctx)
	if err != nil {
		return "", fmt.Errorf("photo uploaded but profile reload failed: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.committed = fresh.Clone()
	if e.draft != nil && (e.state == StateEditing || e.state == StateSaving) {
		e.draft.ProfilePhoto = fresh.ProfilePhoto
	}
	return fresh.ProfilePhoto, nil
}

func validateDraft(p *domain.Profile) validator.ValidationErrors {
	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	location := strings.TrimSpace(p.Location)
	return validator.ValidateProfile(&first, &last, &p.Bio, &location)
}

func addSkill(skills []string, skill string) []string {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return skills
	}
	for _, s := range skills {
		if strings.EqualFold(s, skill) {
			return skills
		}
	}
	return append(skills, skill)
}

func removeAt(skills []string, i int) []string {
	if i < 0 || i >= len(skills) {
		return skills
	}
	out := make([]string, 0, len(skills)-1)
	out = append(out, skills[:i]...)
	return append(out, skills[i+1:]...)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
