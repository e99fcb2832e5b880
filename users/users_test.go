package users_test

import (
	"testing"

	"github.com/jrsteele09/readcomp/apimodel"
	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/users"
	fakeuserrepo "github.com/jrsteele09/readcomp/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := users.HashPassword("correct horse")
	require.NoError(t, err)

	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("correct horse"))
	require.False(t, u.CheckPassword("wrong horse"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		username string
		wantErr  bool
	}{
		{"ok", "reading-is-fun", "sam", false},
		{"too short", "short", "sam", true},
		{"numeric", "12345678", "sam", true},
		{"same as username", "SamSmith1", "samsmith1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password, tt.username)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	sam := &users.User{Username: "sam", Email: "sam@example.com", FirstName: "Sam", LastName: "Reed", Role: apimodel.RoleStudent}
	require.NoError(t, repo.Create(sam))
	require.Equal(t, 1, sam.ID)

	t.Run("duplicates", func(t *testing.T) {
		err := repo.Create(&users.User{Username: "SAM"})
		require.ErrorIs(t, err, errors.ErrAlreadyExists)
		err = repo.Create(&users.User{Username: "other", Email: "Sam@Example.com"})
		require.ErrorIs(t, err, errors.ErrAlreadyExists)
	})

	t.Run("lookups", func(t *testing.T) {
		byName, err := repo.GetByUsername("Sam")
		require.NoError(t, err)
		require.Equal(t, "Sam Reed", byName.FullName())

		byEmail, err := repo.GetByEmail("sam@example.com")
		require.NoError(t, err)
		require.Equal(t, sam.ID, byEmail.ID)

		_, err = repo.GetByID(99)
		require.ErrorIs(t, err, errors.ErrUserNotFound)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		u, err := repo.GetByID(sam.ID)
		require.NoError(t, err)
		u.FirstName = "Changed"

		again, err := repo.GetByID(sam.ID)
		require.NoError(t, err)
		require.Equal(t, "Sam", again.FirstName)
	})

	t.Run("verify", func(t *testing.T) {
		require.NoError(t, repo.SetVerified(sam.ID, true))
		u, err := repo.GetByID(sam.ID)
		require.NoError(t, err)
		require.True(t, u.Verified)
	})

	t.Run("update renames", func(t *testing.T) {
		u, err := repo.GetByID(sam.ID)
		require.NoError(t, err)
		u.Username = "samuel"
		require.NoError(t, repo.Update(u))

		_, err = repo.GetByUsername("sam")
		require.ErrorIs(t, err, errors.ErrUserNotFound)
		_, err = repo.GetByUsername("samuel")
		require.NoError(t, err)
	})
}
