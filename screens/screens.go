// Package screens holds the view state and actions behind each route of the
// reading competition app. Screens are rendered as text for the CLI.
package screens

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jrsteele09/readcomp/api"
	"github.com/jrsteele09/readcomp/guard"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/sessions"
	"github.com/rs/zerolog"
)

// Deps are shared by every screen. The store is the same one the API
// client reads from.
type Deps struct {
	API    *api.API
	Store  sessions.Store
	Guard  *guard.Guard
	Logger zerolog.Logger
}

// Screen is implemented by every route.
type Screen interface {
	Mount(ctx context.Context) error
	Render(w io.Writer) error
}

// Banner is the dismissible screen level error with a retry action.
type Banner struct {
	mu    sync.Mutex
	err   error
	retry func(ctx context.Context) error
}

// Show displays err unless it is handled elsewhere: session expiry and
// redirects are handled by the guard, validation errors by forms.
func (b *Banner) Show(err error, retry func(ctx context.Context) error) {
	if err == nil || !bannerError(err) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
	b.retry = retry
}

func bannerError(err error) bool {
	if errors.Is(err, errors.ErrSessionExpired) || errors.Is(err, errors.ErrRedirected) || errors.Is(err, errors.ErrMalformedToken) {
		return false
	}
	var validation *errors.ValidationError
	return !errors.As(err, &validation)
}

func (b *Banner) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err != nil
}

func (b *Banner) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Message is the text shown to the user.
func (b *Banner) Message() string {
	err := b.Err()
	if err == nil {
		return ""
	}
	var httpErr *errors.HTTPError
	if errors.As(err, &httpErr) {
		if detail := httpErr.Detail(); detail != "" {
			return detail
		}
		return fmt.Sprintf("The server answered %d.", httpErr.Status)
	}
	var transport *errors.TransportError
	if errors.As(err, &transport) {
		return "The server could not be reached."
	}
	return err.Error()
}

func (b *Banner) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = nil
	b.retry = nil
}

// Retry dismisses the banner and reruns the failed action.
func (b *Banner) Retry(ctx context.Context) error {
	b.mu.Lock()
	retry := b.retry
	b.err = nil
	b.retry = nil
	b.mu.Unlock()
	if retry == nil {
		return nil
	}
	return retry(ctx)
}

func (b *Banner) render(w io.Writer) {
	if msg := b.Message(); msg != "" {
		fmt.Fprintf(w, "! %s  [retry] [dismiss]\n", msg)
	}
}

// guarded is embedded by the screens that need a session.
type guarded struct {
	deps    Deps
	banner  Banner
	mountMu sync.Mutex
	mount   *guard.Mount
}

func (g *guarded) Banner() *Banner {
	return &g.banner
}

// authorise runs the guard. A redirected mount returns ErrRedirected and
// must not fetch.
func (g *guarded) authorise(ctx context.Context) error {
	m, err := g.deps.Guard.RequireSession(ctx)
	g.mountMu.Lock()
	g.mount = m
	g.mountMu.Unlock()
	return err
}

func (g *guarded) currentMount() *guard.Mount {
	g.mountMu.Lock()
	defer g.mountMu.Unlock()
	return g.mount
}

func (g *guarded) role() string {
	if m := g.currentMount(); m != nil {
		return m.Role()
	}
	return ""
}

// report sends err to the banner and hands it back to the caller.
func (g *guarded) report(err error, retry func(ctx context.Context) error) error {
	if err != nil {
		g.deps.Logger.Debug().Err(err).Msg("screen action failed")
		g.banner.Show(err, retry)
	}
	return err
}

func renderMenu(w io.Writer, g *guard.Guard, role string) {
	for _, entry := range g.Menu(role) {
		fmt.Fprintf(w, "[%s] ", entry.Label)
	}
	fmt.Fprintln(w)
}
