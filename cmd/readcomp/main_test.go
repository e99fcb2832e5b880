package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	competitionrepofake "github.com/jrsteele09/readcomp/competitions/repofake"
	"github.com/jrsteele09/readcomp/internal/config"
	"github.com/jrsteele09/readcomp/server"
	refreshrepofake "github.com/jrsteele09/readcomp/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/readcomp/users/repofake"
	"github.com/stretchr/testify/require"
)

func startDevServer(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("ENV_FILE", "does-not-exist.env")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SEED_TEACHER_PASSWORD", "teacher-pass-1")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))

	s, err := server.New(config.New(), server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		Competitions:  competitionrepofake.NewFakeCompetitionRepo(),
		RefreshGrants: refreshrepofake.NewFakeGrantRepo(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	t.Setenv("API_BASE_URL", srv.URL)
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in        string
		book      int
		stars     int
		expectErr bool
	}{
		{"42:4", 42, 4, false},
		{"42", 0, 0, true},
		{"x:4", 0, 0, true},
		{"42:five", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			book, stars, err := parseRating(tt.in)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.book, book)
			require.Equal(t, tt.stars, stars)
		})
	}
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), nil, &out))
	require.Contains(t, out.String(), "usage: readcomp")
}

func TestUnknownCommand(t *testing.T) {
	startDevServer(t)
	var out bytes.Buffer
	require.Error(t, run(context.Background(), []string{"dance"}, &out))
}

func TestCommandsAgainstDevServer(t *testing.T) {
	startDevServer(t)
	ctx := context.Background()

	var out bytes.Buffer
	err := run(ctx, []string{"dashboard"}, &out)
	require.Error(t, err)
	require.Contains(t, out.String(), "readcomp login")

	out.Reset()
	require.NoError(t, run(ctx, []string{"login", "-u", "teacher", "-p", "teacher-pass-1"}, &out))
	require.Contains(t, out.String(), "Signed in as TEACHER")

	out.Reset()
	require.NoError(t, run(ctx, []string{"dashboard"}, &out))
	require.Contains(t, out.String(), "Spring Reading Challenge")

	out.Reset()
	require.NoError(t, run(ctx, []string{"competition", "-id", "1", "-register", "-cart", "T-1"}, &out))
	require.Contains(t, out.String(), "You are registered.")

	out.Reset()
	require.NoError(t, run(ctx, []string{"competition", "-id", "1", "-rate", "2:5"}, &out))
	require.Contains(t, out.String(), "*****")

	out.Reset()
	require.NoError(t, run(ctx, []string{"admin", "-create", "Autumn", "-start", "2026-09-01", "-end", "2026-11-30"}, &out))
	require.Contains(t, out.String(), "Autumn")

	out.Reset()
	require.NoError(t, run(ctx, []string{"menu"}, &out))
	require.Contains(t, out.String(), "Admin Panel")

	out.Reset()
	require.NoError(t, run(ctx, []string{"logout"}, &out))
	require.Error(t, run(ctx, []string{"whoami"}, &out))
}
