package apimodel

// LoginRequest is posted to /api/auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the token pair and the account role.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Role    Role   `json:"role"`
}

// RegisterRequest is posted to /api/auth/register/.
type RegisterRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	FatherName string `json:"father_name,omitempty"`
}

// StatusResponse is the {status, message} envelope of registration.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RefreshRequest exchanges a refresh token at /api/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse always has Access; Refresh is set only when the server
// rotates refresh tokens.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// VerifyRequest is posted to /api/token/verify/.
type VerifyRequest struct {
	Token string `json:"token"`
}

// VerifyEmailResponse is returned by the email confirmation link and
// starts a session.
type VerifyEmailResponse struct {
	Message string `json:"message"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// OTPRequest asks for a password reset code.
type OTPRequest struct {
	Email string `json:"email"`
}

// OTPResetRequest sets a new password using the emailed code.
type OTPResetRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is a bare {message} or {detail} body.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// User is the public view of an account.
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	FatherName string `json:"father_name,omitempty"`
	Role       Role   `json:"role,omitempty"`
}
