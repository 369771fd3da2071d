package domain

import (
	"strings"
	"time"
)

// PlaceholderPhotoURL is shown for profiles that never uploaded a photo
const PlaceholderPhotoURL = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=400&h=400&fit=crop&crop=face"

// UnknownLocation is shown for profiles without a location
const UnknownLocation = "Unknown"

// Availability is the coarse schedule a member offers for swaps
type Availability string

const (
	AvailabilityWeekend  Availability = "WEEKEND"
	AvailabilityWorking  Availability = "WORKING"
	AvailabilityFlexible Availability = "FLEXIBLE"
)

// ParseAvailability accepts the wire or the lower-case view form.
// An empty input yields "" which means "no filter".
func ParseAvailability(s string) (Availability, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", true
	case string(AvailabilityWeekend):
		return AvailabilityWeekend, true
	case string(AvailabilityWorking):
		return AvailabilityWorking, true
	case string(AvailabilityFlexible):
		return AvailabilityFlexible, true
	}
	return "", false
}

// View returns the lower-case form used by cards, defaulting to flexible.
func (a Availability) View() string {
	if a == "" {
		return strings.ToLower(string(AvailabilityFlexible))
	}
	return strings.ToLower(string(a))
}

// User is the identity returned at login and persisted in the session
type User struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles,omitempty"`
}

// DisplayName joins first and last name
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile is the wire representation of a member profile
type Profile struct {
	ID              int64        `json:"id"`
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	FullName        string       `json:"fullName,omitempty"`
	Email           string       `json:"email,omitempty"`
	Bio             string       `json:"bio,omitempty"`
	Location        string       `json:"location,omitempty"`
	ProfilePhoto    string       `json:"profilePhoto,omitempty"`
	SkillsOffered   []string     `json:"skillsOffered"`
	SkillsWanted    []string     `json:"skillsWanted"`
	Availability    Availability `json:"availability,omitempty"`
	AverageRating   *float64     `json:"averageRating,omitempty"`
	CompletedSwaps  int          `json:"completedSwaps"`
	TotalReviews    int          `json:"totalReviews"`
	IsProfilePublic bool         `json:"isProfilePublic"`
}

// Clone returns a deep copy
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.SkillsOffered = cloneStrings(p.SkillsOffered)
	c.SkillsWanted = cloneStrings(p.SkillsWanted)
	if p.AverageRating != nil {
		r := *p.AverageRating
		c.AverageRating = &r
	}
	return &c
}

// Card is the normalized view of a profile shown in listings
type Card struct {
	ID             int64
	Name           string
	FirstName      string
	LastName       string
	SkillsOffered  []string
	SkillsWanted   []string
	Availability   string
	Photo          string
	Rating         float64
	CompletedSwaps int
	TotalReviews   int
	Location       string
	Bio            string
}

// ToCard normalizes a wire profile, filling in display defaults
func ToCard(p Profile) Card {
	name := strings.TrimSpace(p.FullName)
	if name == "" {
		name = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}

	photo := p.ProfilePhoto
	if photo == "" {
		photo = PlaceholderPhotoURL
	}

	var rating float64
	if p.AverageRating != nil {
		rating = *p.AverageRating
	}

	location := strings.TrimSpace(p.Location)
	if location == "" {
		location = UnknownLocation
	}

	return Card{
		ID:             p.ID,
		Name:           name,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		SkillsOffered:  nonNil(p.SkillsOffered),
		SkillsWanted:   nonNil(p.SkillsWanted),
		Availability:   p.Availability.View(),
		Photo:          photo,
		Rating:         rating,
		CompletedSwaps: p.CompletedSwaps,
		TotalReviews:   p.TotalReviews,
		Location:       location,
		Bio:            p.Bio,
	}
}

// Account is the devserver's stored member record
type Account struct {
	Profile
	PasswordHash      string
	EmailVerified     bool
	VerificationToken string
	Roles             []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Identity returns the session identity of the account
func (a *Account) Identity() *User {
	return &User{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Roles:     cloneStrings(a.Roles),
	}
}

// PublicProfile returns the wire profile with derived fields filled in
func (a *Account) PublicProfile() Profile {
	p := *a.Profile.Clone()
	p.FullName = strings.TrimSpace(p.FirstName + " " + p.LastName)
	p.SkillsOffered = nonNil(p.SkillsOffered)
	p.SkillsWanted = nonNil(p.SkillsWanted)
	return p
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return cloneStrings(s)
}
