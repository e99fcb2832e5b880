package errors_test

import (
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/readcomp/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestParseValidationError(t *testing.T) {
	t.Run("list of messages per field", func(t *testing.T) {
		verr := apperrors.ParseValidationError([]byte(`{"username": ["already taken"]}`))
		require.NotNil(t, verr)
		require.Equal(t, "already taken", verr.Field("username"))
		require.Empty(t, verr.Field("email"))
	})

	t.Run("single string per field", func(t *testing.T) {
		verr := apperrors.ParseValidationError([]byte(`{"email": "invalid"}`))
		require.NotNil(t, verr)
		require.Equal(t, "invalid", verr.Field("email"))
	})

	t.Run("detail only is not a form error", func(t *testing.T) {
		require.Nil(t, apperrors.ParseValidationError([]byte(`{"detail": "nope"}`)))
	})

	t.Run("nested values are not a form error", func(t *testing.T) {
		require.Nil(t, apperrors.ParseValidationError([]byte(`{"a": {"b": 1}}`)))
	})

	t.Run("not json", func(t *testing.T) {
		require.Nil(t, apperrors.ParseValidationError([]byte(`<html>`)))
	})
}

func TestHTTPErrorDetail(t *testing.T) {
	err := &apperrors.HTTPError{Status: 400, Body: []byte(`{"detail": "You have already registered for this competition."}`)}
	require.Equal(t, "You have already registered for this competition.", err.Detail())
	require.Contains(t, err.Error(), "http 400")

	plain := &apperrors.HTTPError{Status: 502, Body: []byte("bad gateway\n")}
	require.Equal(t, "bad gateway", plain.Detail())
}

func TestWrapf(t *testing.T) {
	require.NoError(t, apperrors.Wrapf(nil, "context"))

	err := apperrors.Wrapf(apperrors.ErrSessionExpired, "GET %s", "/api/inbox/")
	require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
	require.Equal(t, "GET /api/inbox/: session expired", err.Error())
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := error(&apperrors.TransportError{Method: "GET", Path: "/api/inbox/", Err: cause})

	var terr *apperrors.TransportError
	require.True(t, apperrors.As(err, &terr))
	require.ErrorIs(t, err, cause)
}
