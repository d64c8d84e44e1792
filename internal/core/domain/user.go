package domain

// UserProfile is the identity record owned by the authorization service.
// The gateway and session store never synthesize one; every instance comes
// off the wire.
type UserProfile struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FullName        string `json:"full_name,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	JobTitle        string `json:"job_title,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FullName        string `json:"full_name"`
	JobTitle        string `json:"job_title,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// AuthResponse is the body returned by login and register. The session
// credential itself travels as an HttpOnly cookie set by the authorization
// service; it never appears in the body.
type AuthResponse struct {
	User UserProfile `json:"user"`
}
