package domain

type UserProfile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// BackendUser is a login record; credentials are compared verbatim.
type BackendUser struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Email    string   `json:"email"`
	Stores   []string `json:"stores"`
}

func (u BackendUser) Profile() UserProfile {
	return UserProfile{Username: u.Username, Name: u.Name, Role: u.Role, Email: u.Email}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token       string         `json:"token"`
	User        UserProfile    `json:"user"`
	Stores      []StoreProfile `json:"stores"`
	Permissions []string       `json:"permissions"`
}

type RegisterRequest struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Name       string `json:"name"`
	InviteCode string `json:"inviteCode"`
}

type RegisterResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *UserProfile `json:"user,omitempty"`
}

// Actor identifies the authenticated caller of an HTTP request.
type Actor struct {
	Username    string
	Role        string
	Stores      []string
	Permissions []string
}
