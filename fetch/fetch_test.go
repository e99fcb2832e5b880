package fetch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/readcomp/fetch"
	"github.com/stretchr/testify/require"
)

func TestTaskAppliesResult(t *testing.T) {
	var task fetch.Task[[]string]

	applied, err := task.Run(context.Background(), "list", func(context.Context) ([]string, error) {
		require.True(t, task.State().Loading)
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	require.True(t, applied)

	state := task.State()
	require.False(t, state.Loading)
	require.True(t, state.Loaded)
	require.Equal(t, []string{"a", "b"}, state.Data)
}

func TestTaskDiscardsStaleResponse(t *testing.T) {
	var task fetch.Task[string]
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan bool)
	go func() {
		applied, _ := task.Run(ctx, "competition/1", func(context.Context) (string, error) {
			close(started)
			<-release
			return "first", nil
		})
		done <- applied
	}()
	<-started

	applied, err := task.Run(ctx, "competition/2", func(context.Context) (string, error) {
		return "second", nil
	})
	require.NoError(t, err)
	require.True(t, applied)

	close(release)
	require.False(t, <-done)

	state := task.State()
	require.Equal(t, "competition/2", state.Key)
	require.Equal(t, "second", state.Data)
}

func TestTaskSupersede(t *testing.T) {
	var task fetch.Task[int]
	applied, err := task.Run(context.Background(), "k", func(context.Context) (int, error) {
		task.Supersede()
		return 1, nil
	})
	require.NoError(t, err)
	require.False(t, applied)
	require.False(t, task.State().Loaded)
}

func TestTaskResetDropsInFlightRun(t *testing.T) {
	var task fetch.Task[string]
	ctx := context.Background()
	_, err := task.Run(ctx, "competition/1", func(context.Context) (string, error) { return "one", nil })
	require.NoError(t, err)

	applied, err := task.Run(ctx, "competition/1", func(context.Context) (string, error) {
		task.Reset("competition/2")
		return "late", nil
	})
	require.NoError(t, err)
	require.False(t, applied)

	state := task.State()
	require.Equal(t, "competition/2", state.Key)
	require.Empty(t, state.Data)
	require.False(t, state.Loaded)
}

func TestTaskReloadKeepsToItsKey(t *testing.T) {
	var task fetch.Task[string]
	ctx := context.Background()
	_, err := task.Run(ctx, "competition/1", func(context.Context) (string, error) { return "one", nil })
	require.NoError(t, err)

	applied, err := task.Reload(ctx, "competition/1", func(context.Context) (string, error) { return "one again", nil })
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, "one again", task.State().Data)

	task.Reset("competition/2")
	called := false
	applied, err = task.Reload(ctx, "competition/1", func(context.Context) (string, error) {
		called = true
		return "stale", nil
	})
	require.NoError(t, err)
	require.False(t, applied)
	require.False(t, called)
	require.Equal(t, "competition/2", task.State().Key)
	require.Empty(t, task.State().Data)
}

func TestTaskError(t *testing.T) {
	var task fetch.Task[int]
	task.Set(5)
	boom := errors.New("boom")

	applied, err := task.Run(context.Background(), "", func(context.Context) (int, error) {
		return 0, boom
	})
	require.True(t, applied)
	require.ErrorIs(t, err, boom)

	state := task.State()
	require.ErrorIs(t, state.Err, boom)
	require.Equal(t, 5, state.Data, "failed reload keeps data")

	task.DismissError()
	require.NoError(t, task.State().Err)
}

func TestMutationRollsBack(t *testing.T) {
	m := fetch.NewMutation(3)
	boom := errors.New("boom")

	err := m.Apply(context.Background(), 5, func(_ context.Context, v int) (int, error) {
		require.Equal(t, 5, m.Value())
		require.True(t, m.Pending())
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, m.Value())
	require.False(t, m.Pending())
}

func TestMutationConfirms(t *testing.T) {
	m := fetch.NewMutation(false)
	err := m.Apply(context.Background(), true, func(_ context.Context, v bool) (bool, error) {
		return v, nil
	})
	require.NoError(t, err)
	require.True(t, m.Value())
	require.True(t, m.Confirmed())

	m.Confirm(false)
	require.False(t, m.Value())
}

func TestMutationNewerApplyWins(t *testing.T) {
	m := fetch.NewMutation(1)
	ctx := context.Background()

	err := m.Apply(ctx, 2, func(ctx context.Context, _ int) (int, error) {
		require.NoError(t, m.Apply(ctx, 4, func(_ context.Context, v int) (int, error) { return v, nil }))
		return 0, errors.New("slow failure")
	})
	require.Error(t, err)
	require.Equal(t, 4, m.Value())
	require.Equal(t, 4, m.Confirmed())
}
