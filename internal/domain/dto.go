package domain

// APIResponse is the generic envelope for operations without a payload
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LoginResponse is returned by the login endpoint
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// ProfilePage is one page of the public directory
type ProfilePage struct {
	Profiles      []Profile `json:"profiles"`
	TotalElements int       `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	CurrentPage   int       `json:"currentPage"`
	Size          int       `json:"size"`
	HasNext       bool      `json:"hasNext"`
	HasPrevious   bool      `json:"hasPrevious"`
}

// Stats are the platform-wide counters shown on the landing view
type Stats struct {
	ActiveMembers           int `json:"activeMembers"`
	SuccessfulMatches       int `json:"successfulMatches"`
	TotalSkillsOffered      int `json:"totalSkillsOffered"`
	TotalConnectionRequests int `json:"totalConnectionRequests"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

// UpdateProfileRequest carries scalar profile fields; nil means unchanged
type UpdateProfileRequest struct {
	FirstName       *string       `json:"firstName,omitempty"`
	LastName        *string       `json:"lastName,omitempty"`
	Bio             *string       `json:"bio,omitempty"`
	Location        *string       `json:"location,omitempty"`
	Availability    *Availability `json:"availability,omitempty"`
	IsProfilePublic *bool         `json:"isProfilePublic,omitempty"`
}

// UpdateSkillsRequest replaces both skill lists
type UpdateSkillsRequest struct {
	SkillsOffered []string `json:"skillsOffered"`
	SkillsWanted  []string `json:"skillsWanted"`
}

type ConnectionRequestBody struct {
	ReceiverID int64  `json:"receiverId"`
	Message    string `json:"message,omitempty"`
}

type RateRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review,omitempty"`
}

// SearchParams filters the public directory
type SearchParams struct {
	Page         int
	Size         int
	Search       string
	Availability Availability
}
