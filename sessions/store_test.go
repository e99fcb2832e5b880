package sessions_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jrsteele09/readcomp/sessions"
	"github.com/jrsteele09/readcomp/sessions/storefakes"
	"github.com/stretchr/testify/require"
)

// storeFactories runs every behavioural test against both implementations.
func storeFactories(t *testing.T) map[string]func() sessions.Store {
	t.Helper()
	return map[string]func() sessions.Store{
		"file": func() sessions.Store {
			return sessions.NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
		},
		"memory": func() sessions.Store {
			return storefakes.NewMemoryStore()
		},
	}
}

func TestStore_SaveReadRoundTrip(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Save("access-a", "refresh-b"))

			got, ok, err := s.Read()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "access-a", got.AccessToken)
			require.Equal(t, "refresh-b", got.RefreshToken)
		})
	}
}

func TestStore_EmptyReadsAbsent(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := newStore().Read()
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Save("a", "r"))
			require.NoError(t, s.SaveRole("TEACHER"))

			for i := 0; i < 2; i++ {
				require.NoError(t, s.Clear())
				got, ok, err := s.Read()
				require.NoError(t, err)
				require.False(t, ok)
				require.Empty(t, got.Role)
			}
		})
	}
}

func TestStore_SaveRole(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Save("a", "r"))
			require.NoError(t, s.SaveRole("STUDENT"))

			got, _, err := s.Read()
			require.NoError(t, err)
			require.Equal(t, "STUDENT", got.Role)

			// A new login drops the role of the previous one.
			require.NoError(t, s.Save("a2", "r2"))
			got, _, err = s.Read()
			require.NoError(t, err)
			require.Empty(t, got.Role)
		})
	}
}

func TestStore_ReplaceAccess(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name+"/same generation", func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Save("old", "refresh"))
			before, _, _ := s.Read()

			require.NoError(t, s.ReplaceAccess(before.Generation, "new"))
			after, ok, err := s.Read()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "new", after.AccessToken)
			require.Equal(t, "refresh", after.RefreshToken)
			require.Equal(t, before.Generation, after.Generation)
		})

		t.Run(name+"/cleared in between", func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Save("old", "refresh"))
			before, _, _ := s.Read()
			require.NoError(t, s.Clear())

			err := s.ReplaceAccess(before.Generation, "new")
			require.ErrorIs(t, err, sessions.ErrSessionCleared)

			_, ok, err := s.Read()
			require.NoError(t, err)
			require.False(t, ok, "a cleared session must not be resurrected")
		})

		t.Run(name+"/replaced by new login", func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Save("old", "refresh"))
			before, _, _ := s.Read()
			require.NoError(t, s.Save("other", "other-refresh"))

			require.ErrorIs(t, s.ReplaceAccess(before.Generation, "new"), sessions.ErrSessionCleared)
			got, _, _ := s.Read()
			require.Equal(t, "other", got.AccessToken)
		})
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := newStore()
			require.NoError(t, s.Save("a", "r"))

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					got, ok, err := s.Read()
					if err == nil && ok {
						_ = s.ReplaceAccess(got.Generation, "a")
					}
				}()
			}
			wg.Wait()

			got, ok, err := s.Read()
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "a", got.AccessToken)
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, sessions.NewFileStore(path).Save("access", "refresh"))

	reopened := sessions.NewFileStore(path)
	got, ok, err := reopened.Read()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access", got.AccessToken)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_UsesWellKnownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := sessions.NewFileStore(path)
	require.NoError(t, s.Save("access", "refresh"))
	require.NoError(t, s.SaveRole("TEACHER"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{sessions.KeyAccessToken, sessions.KeyRefreshToken, sessions.KeyRole, sessions.KeyGeneration} {
		require.Contains(t, string(data), `"`+key+`"`)
	}
}

func TestFileStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s := sessions.NewFileStore(path)

	_, _, err := s.Read()
	require.Error(t, err)

	// Clear recovers from a corrupt document.
	require.NoError(t, s.Clear())
	_, ok, err := s.Read()
	require.NoError(t, err)
	require.False(t, ok)
}
