package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

type User struct {
	ID           int           `json:"id"`
	Username     string        `json:"username"`
	Email        string        `json:"email,omitempty"`
	PasswordHash string        `json:"-"` // never serialize
	FirstName    string        `json:"first_name,omitempty"`
	LastName     string        `json:"last_name,omitempty"`
	FatherName   string        `json:"father_name,omitempty"`
	Avatar       string        `json:"avatar,omitempty"`
	Role         apimodel.Role `json:"role"`
	DateJoined   time.Time     `json:"date_joined,omitempty"`
	LastLogin    time.Time     `json:"last_login,omitempty"`

	// Verified is false until the emailed confirmation link is followed.
	// Unverified users cannot log in.
	Verified    bool   `json:"verified"`
	VerifyToken string `json:"-"`

	ResetOTP       string    `json:"-"`
	ResetOTPExpiry time.Time `json:"-"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Public is the view of the user other accounts may see.
func (u *User) Public() apimodel.User {
	return apimodel.User{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Avatar:     u.Avatar,
		FatherName: u.FatherName,
		Role:       u.Role,
	}
}

func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// ValidatePasswordStrength checks if password meets the registration rules:
// - At least 8 characters long
// - Not entirely numeric
// - Not the same as the username
func ValidatePasswordStrength(password, username string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	}

	numeric := true
	for _, char := range password {
		if !unicode.IsDigit(char) {
			numeric = false
			break
		}
	}
	if numeric {
		return errors.New("This password is entirely numeric.")
	}
	if username != "" && strings.EqualFold(password, username) {
		return errors.New("The password is too similar to the username.")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
