package server

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/token"
	"github.com/jrsteele09/readcomp/users"
)

const (
	detailNoActiveAccount = "No active account found with the given credentials"
	detailRefreshInvalid  = "Token is invalid or expired"
	otpDigits             = 6
)

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func generateOTP() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func encodeUID(id int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(id)))
}

func decodeUID(uid string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}

// LoginHandler exchanges username and password for a token pair and the
// account role. Unverified accounts are rejected like unknown ones.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		errs.required("username", req.Username)
		errs.required("password", req.Password)
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		user, err := s.repos.Users.GetByUsername(req.Username)
		if err != nil || !user.CheckPassword(req.Password) || !user.Verified {
			s.metrics.RecordLogin(false)
			writeDetail(w, http.StatusUnauthorized, detailNoActiveAccount)
			return
		}

		access, refreshToken, err := s.issueTokens(user)
		if err != nil {
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not issue tokens.")
			return
		}

		user.LastLogin = token.NowTimeFunc()
		if err := s.repos.Users.Update(user); err != nil {
			s.logger.Warn().Err(err).Int("user_id", user.ID).Msg("failed to record last login")
		}
		s.metrics.RecordLogin(true)
		writeJSON(w, http.StatusOK, apimodel.LoginResponse{Access: access, Refresh: refreshToken, Role: user.Role})
	}
}

// RegisterHandler creates an inactive student account and mails the
// verification link.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		errs := fieldErrors{}
		errs.required("username", req.Username)
		errs.maxLength("username", req.Username, 150)
		errs.required("email", req.Email)
		errs.required("password", req.Password)
		errs.required("first_name", req.FirstName)
		errs.required("last_name", req.LastName)
		if req.Email != "" {
			if _, err := mail.ParseAddress(req.Email); err != nil {
				errs.add("email", "Enter a valid email address.")
			}
		}
		if req.Password != "" {
			if err := users.ValidatePasswordStrength(req.Password, req.Username); err != nil {
				errs.add("password", err.Error())
			}
		}
		if req.Username != "" {
			if _, err := s.repos.Users.GetByUsername(req.Username); err == nil {
				errs.add("username", "A user with that username already exists.")
			}
		}
		if req.Email != "" {
			if _, err := s.repos.Users.GetByEmail(req.Email); err == nil {
				errs.add("email", "user with this email already exists.")
			}
		}
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		hash, err := users.HashPassword(req.Password)
		if err != nil {
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not create account.")
			return
		}
		user := &users.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			FatherName:   req.FatherName,
			Role:         apimodel.RoleStudent,
			DateJoined:   token.NowTimeFunc(),
			VerifyToken:  generateRandomString(24),
		}
		if err := s.repos.Users.Create(user); err != nil {
			if errors.Is(err, errors.ErrAlreadyExists) {
				writeFieldErrors(w, fieldErrors{"username": {"A user with that username already exists."}})
				return
			}
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not create account.")
			return
		}

		link := fmt.Sprintf("%s://%s/api/verify-email/%s/%s/", getScheme(r), r.Host, encodeUID(user.ID), user.VerifyToken)
		if err := s.mailer.Send(user.Email, "Verify your email", "Click this link to verify your account: "+link); err != nil {
			s.logger.Err(err).Str("email", user.Email).Msg("failed to send verification email")
		}

		writeJSON(w, http.StatusCreated, apimodel.StatusResponse{Status: "ok", Message: "Verification link sent to your email."})
	}
}

// VerifyEmailHandler activates the account behind a verification link and
// logs it in.
func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := decodeUID(r.PathValue("uid"))
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid activation link.")
			return
		}
		user, err := s.repos.Users.GetByID(id)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid activation link.")
			return
		}

		supplied := r.PathValue("token")
		if user.VerifyToken == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(user.VerifyToken)) != 1 {
			writeDetail(w, http.StatusBadRequest, "Token expired or invalid.")
			return
		}
		if err := s.repos.Users.SetVerified(user.ID, true); err != nil {
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not verify account.")
			return
		}
		user.Verified = true

		access, refreshToken, err := s.issueTokens(user)
		if err != nil {
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not issue tokens.")
			return
		}
		writeJSON(w, http.StatusOK, apimodel.VerifyEmailResponse{
			Message: "Email verified. You are now logged in.",
			Access:  access,
			Refresh: refreshToken,
		})
	}
}

// TokenRefreshHandler issues a new access token for a live refresh token.
func (s *Server) TokenRefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Refresh == "" {
			writeFieldErrors(w, fieldErrors{"refresh": {msgRequired}})
			return
		}

		grant, err := s.refresh.Validate(req.Refresh)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailRefreshInvalid, "code": "token_not_valid"})
			return
		}
		user, err := s.repos.Users.GetByID(grant.UserID)
		if err != nil || !user.Verified {
			_ = s.refresh.Revoke(req.Refresh)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": detailRefreshInvalid, "code": "token_not_valid"})
			return
		}

		access, err := s.issueAccessToken(user)
		if err != nil {
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not issue tokens.")
			return
		}
		writeJSON(w, http.StatusOK, apimodel.RefreshResponse{Access: access})
	}
}

// TokenVerifyHandler answers 200 for a valid signed token and 401 otherwise.
func (s *Server) TokenVerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.VerifyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Token == "" {
			writeFieldErrors(w, fieldErrors{"token": {msgRequired}})
			return
		}
		if _, err := token.Verify(s.signer, req.Token); err != nil {
			writeTokenNotValid(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{})
	}
}

// OTPRequestResetHandler mails a one time code for a password reset. The
// response does not reveal whether the email is registered.
func (s *Server) OTPRequestResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.OTPRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			writeFieldErrors(w, fieldErrors{"email": {"Enter a valid email address."}})
			return
		}

		if user, err := s.repos.Users.GetByEmail(req.Email); err == nil {
			code, err := generateOTP()
			if err != nil {
				s.logError(r.Method, r.URL.Path, err)
				writeDetail(w, http.StatusInternalServerError, "Could not create a reset code.")
				return
			}
			user.ResetOTP = code
			user.ResetOTPExpiry = token.NowTimeFunc().Add(s.config.GetOTPExpiry())
			if err := s.repos.Users.Update(user); err != nil {
				s.logError(r.Method, r.URL.Path, err)
				writeDetail(w, http.StatusInternalServerError, "Could not create a reset code.")
				return
			}
			if err := s.mailer.Send(user.Email, "Password reset code", "Your password reset code is "+code); err != nil {
				s.logger.Err(err).Str("email", user.Email).Msg("failed to send reset code")
			}
		}
		writeJSON(w, http.StatusOK, apimodel.MessageResponse{Message: "If the email is registered, a reset code has been sent."})
	}
}

func (s *Server) OTPResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req apimodel.OTPResetRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		errs := fieldErrors{}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			errs.add("email", "Enter a valid email address.")
		}
		errs.required("otp", req.OTP)
		errs.maxLength("otp", req.OTP, otpDigits)
		if len(req.NewPassword) < users.MinPasswordLength {
			errs.add("new_password", fmt.Sprintf("Ensure this field has at least %d characters.", users.MinPasswordLength))
		}
		if errs.any() {
			writeFieldErrors(w, errs)
			return
		}

		user, err := s.repos.Users.GetByEmail(req.Email)
		if err != nil || user.ResetOTP == "" ||
			subtle.ConstantTimeCompare([]byte(req.OTP), []byte(user.ResetOTP)) != 1 ||
			token.NowTimeFunc().After(user.ResetOTPExpiry) {
			writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP.")
			return
		}

		hash, err := users.HashPassword(req.NewPassword)
		if err != nil {
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not reset password.")
			return
		}
		user.PasswordHash = hash
		user.ResetOTP = ""
		user.ResetOTPExpiry = time.Time{}
		if err := s.repos.Users.Update(user); err != nil {
			s.logError(r.Method, r.URL.Path, err)
			writeDetail(w, http.StatusInternalServerError, "Could not reset password.")
			return
		}
		if n, err := s.refresh.RevokeUser(user.ID); err != nil {
			s.logger.Err(err).Int("user_id", user.ID).Msg("failed to revoke refresh grants")
		} else if n > 0 {
			s.logger.Info().Int("user_id", user.ID).Int("revoked", n).Msg("signed out after password reset")
		}
		writeJSON(w, http.StatusOK, apimodel.MessageResponse{Message: "Password has been reset successfully."})
	}
}
