package screens

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/token"
)

// RegisterForm is what the user typed on the registration screen.
type RegisterForm struct {
	apimodel.RegisterRequest
	ConfirmPassword string
}

const msgPasswordMismatch = "Passwords do not match."

// Register creates accounts, confirms the emailed link and resets
// forgotten passwords.
type Register struct {
	deps    Deps
	banner  Banner
	fields  *errors.ValidationError
	message string
}

func NewRegister(deps Deps) *Register {
	return &Register{deps: deps}
}

func (r *Register) Mount(context.Context) error {
	return nil
}

func (r *Register) Banner() *Banner {
	return &r.banner
}

// Submit registers the account. The server answers with a message asking
// the user to confirm their email.
func (r *Register) Submit(ctx context.Context, form RegisterForm) error {
	r.fields = nil
	r.message = ""
	if form.Password != form.ConfirmPassword {
		r.fields = &errors.ValidationError{Fields: map[string][]string{"password2": {msgPasswordMismatch}}}
		return r.fields
	}

	resp, err := r.deps.API.Register(ctx, form.RegisterRequest)
	if err != nil {
		return r.fail(err, func(ctx context.Context) error { return r.Submit(ctx, form) })
	}
	r.message = resp.Message
	return nil
}

// Confirm follows the emailed verification link and signs the user in.
func (r *Register) Confirm(ctx context.Context, uid, verifyToken string) error {
	r.fields = nil
	resp, err := r.deps.API.VerifyEmail(ctx, uid, verifyToken)
	if err != nil {
		return r.fail(err, func(ctx context.Context) error { return r.Confirm(ctx, uid, verifyToken) })
	}
	if err := r.deps.Store.Save(resp.Access, resp.Refresh); err != nil {
		return errors.Wrapf(err, "Register.Confirm save session")
	}
	if claims, err := token.Decode(resp.Access); err == nil && claims.Role != "" {
		if err := r.deps.Store.SaveRole(claims.Role); err != nil {
			return errors.Wrapf(err, "Register.Confirm save role")
		}
	}
	r.message = resp.Message
	return nil
}

// RequestReset mails a one time code to email.
func (r *Register) RequestReset(ctx context.Context, email string) error {
	r.fields = nil
	resp, err := r.deps.API.RequestPasswordReset(ctx, email)
	if err != nil {
		return r.fail(err, func(ctx context.Context) error { return r.RequestReset(ctx, email) })
	}
	r.message = resp.Message
	return nil
}

// ResetPassword sets a new password using the mailed code.
func (r *Register) ResetPassword(ctx context.Context, email, otp, newPassword, confirm string) error {
	r.fields = nil
	if newPassword != confirm {
		r.fields = &errors.ValidationError{Fields: map[string][]string{"new_password2": {msgPasswordMismatch}}}
		return r.fields
	}
	resp, err := r.deps.API.ResetPassword(ctx, apimodel.OTPResetRequest{Email: email, OTP: otp, NewPassword: newPassword})
	if err != nil {
		return r.fail(err, func(ctx context.Context) error { return r.ResetPassword(ctx, email, otp, newPassword, confirm) })
	}
	r.message = resp.Message
	return nil
}

func (r *Register) fail(err error, retry func(ctx context.Context) error) error {
	var validation *errors.ValidationError
	if errors.As(err, &validation) {
		r.fields = validation
		return err
	}
	r.banner.Show(err, retry)
	return err
}

// FieldError is the message for one form field, empty when it is valid.
func (r *Register) FieldError(name string) string {
	if r.fields == nil {
		return ""
	}
	return r.fields.Field(name)
}

// Fields lists the fields that currently have errors.
func (r *Register) Fields() []string {
	if r.fields == nil {
		return nil
	}
	names := make([]string, 0, len(r.fields.Fields))
	for name := range r.fields.Fields {
		names = append(names, name)
	}
	return names
}

func (r *Register) Message() string {
	return r.message
}

func (r *Register) Render(w io.Writer) error {
	fmt.Fprintln(w, "== Register ==")
	r.banner.render(w)
	if r.fields != nil {
		fmt.Fprintln(w, r.fields.Error())
	}
	if r.message != "" {
		fmt.Fprintln(w, r.message)
	}
	return nil
}
