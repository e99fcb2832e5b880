package screens

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/readcomp/internal/errors"
)

// Login signs a user in and stores the session.
type Login struct {
	deps   Deps
	banner Banner
	fields *errors.ValidationError
	role   string
}

func NewLogin(deps Deps) *Login {
	return &Login{deps: deps}
}

// Mount never fetches; the login screen is public.
func (l *Login) Mount(context.Context) error {
	return nil
}

func (l *Login) Banner() *Banner {
	return &l.banner
}

// Submit posts the credentials and saves the returned tokens and role.
func (l *Login) Submit(ctx context.Context, username, password string) error {
	l.fields = nil
	local := map[string][]string{}
	if strings.TrimSpace(username) == "" {
		local["username"] = []string{"This field may not be blank."}
	}
	if password == "" {
		local["password"] = []string{"This field may not be blank."}
	}
	if len(local) > 0 {
		l.fields = &errors.ValidationError{Fields: local}
		return l.fields
	}

	resp, err := l.deps.API.Login(ctx, username, password)
	if err != nil {
		var validation *errors.ValidationError
		if errors.As(err, &validation) {
			l.fields = validation
			return err
		}
		l.banner.Show(err, func(ctx context.Context) error { return l.Submit(ctx, username, password) })
		return err
	}

	if err := l.deps.Store.Save(resp.Access, resp.Refresh); err != nil {
		return errors.Wrapf(err, "Login.Submit save session")
	}
	if err := l.deps.Store.SaveRole(string(resp.Role)); err != nil {
		return errors.Wrapf(err, "Login.Submit save role")
	}
	l.role = string(resp.Role)
	l.deps.Logger.Info().Str("username", username).Str("role", l.role).Msg("logged in")
	return nil
}

// Logout forgets the session.
func (l *Login) Logout() error {
	l.role = ""
	return l.deps.Store.Clear()
}

func (l *Login) FieldError(name string) string {
	if l.fields == nil {
		return ""
	}
	return l.fields.Field(name)
}

func (l *Login) Role() string {
	return l.role
}

func (l *Login) Render(w io.Writer) error {
	fmt.Fprintln(w, "== Login ==")
	l.banner.render(w)
	for _, field := range []string{"username", "password", errors.NonFieldKey} {
		if msg := l.FieldError(field); msg != "" {
			fmt.Fprintf(w, "%s: %s\n", field, msg)
		}
	}
	if l.role != "" {
		fmt.Fprintf(w, "Signed in as %s.\n", l.role)
		renderMenu(w, l.deps.Guard, l.role)
	}
	return nil
}
