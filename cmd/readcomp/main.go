package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/readcomp/api"
	"github.com/jrsteele09/readcomp/client"
	"github.com/jrsteele09/readcomp/guard"
	"github.com/jrsteele09/readcomp/internal/config"
	"github.com/jrsteele09/readcomp/internal/logging"
	"github.com/jrsteele09/readcomp/internal/metrics"
	"github.com/jrsteele09/readcomp/screens"
	"github.com/jrsteele09/readcomp/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const usage = `usage: readcomp <command> [flags]

commands:
  login          sign in and store the session
  logout         forget the stored session
  register       create a student account
  verify         confirm an account with the emailed uid and token
  reset-request  email a password reset code
  reset          set a new password with the emailed code
  whoami         show the stored session
  menu           show the navigation menu for the stored role
  dashboard      list competitions
  competition    show one competition and act on it
  profile        show reading progress
  achievements   list achievements
  inbox          list notifications
  admin          teacher panel (tabs, create, delete, upload)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// app carries everything a command needs.
type app struct {
	config   config.Config
	logger   zerolog.Logger
	out      io.Writer
	store    sessions.Store
	guard    *guard.Guard
	api      *api.API
	registry *prometheus.Registry
}

// loginNavigator is where the guard sends the user when there is no
// usable session.
type loginNavigator struct {
	out io.Writer
}

func (n loginNavigator) RedirectToLogin(_ context.Context, reason string) {
	fmt.Fprintf(n.out, "Your session ended (%s). Run `readcomp login` to sign in again.\n", reason)
}

func newApp(c config.Config, out io.Writer) (*app, error) {
	logger := logging.New(os.Stderr, c.GetLogLevel())
	store := sessions.NewFileStore(c.GetSessionFile(), sessions.WithLogger(logger))
	g := guard.New(store, loginNavigator{out: out}, guard.WithElevatedRole(c.GetElevatedRole()), guard.WithLogger(logger))

	registry := prometheus.NewRegistry()
	httpClient, err := client.New(c.GetBaseURL(), store,
		client.WithLogger(logger),
		client.WithTimeout(c.GetRequestTimeout()),
		client.WithSessionExpiredHandler(g),
		client.WithMetrics(metrics.NewClientMetrics(registry)),
		client.WithUserAgent(c.GetAppName()+"-cli"),
	)
	if err != nil {
		return nil, err
	}
	return &app{
		config:   c,
		logger:   logger,
		out:      out,
		store:    store,
		guard:    g,
		api:      api.New(httpClient),
		registry: registry,
	}, nil
}

func (a *app) deps() screens.Deps {
	return screens.Deps{API: a.api, Store: a.store, Guard: a.guard, Logger: a.logger}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		displayAppname(out, "readcomp")
		fmt.Fprint(out, usage)
		return nil
	}

	a, err := newApp(config.New(), out)
	if err != nil {
		return err
	}
	defer a.logMetrics()

	name, rest := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, a, rest)
}

// logMetrics writes the client counters at debug level when the command
// finishes.
func (a *app) logMetrics() {
	if a.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Debug().Err(err).Msg("gathering client metrics")
		return
	}
	names := make([]string, 0, len(families))
	for _, mf := range families {
		total := 0.0
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				total += float64(h.GetSampleCount())
			}
		}
		names = append(names, fmt.Sprintf("%s=%g", mf.GetName(), total))
	}
	sort.Strings(names)
	a.logger.Debug().Msg("client metrics: " + strings.Join(names, " "))
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
