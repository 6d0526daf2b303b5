package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/liveness-probe/internal/probe"
	"github.com/Proton-105/liveness-probe/internal/state"
	"github.com/Proton-105/liveness-probe/internal/statusfile"
)

type mockCheckable struct {
	mock.Mock
}

func (m *mockCheckable) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type fixedSnapshot probe.Snapshot

func (f fixedSnapshot) Snapshot() probe.Snapshot {
	return probe.Snapshot(f)
}

func TestChecker_Check(t *testing.T) {
	ok := &mockCheckable{}
	ok.On("HealthCheck", mock.Anything).Return(nil).Once()
	broken := &mockCheckable{}
	broken.On("HealthCheck", mock.Anything).Return(errors.New("connection refused")).Once()

	c := NewChecker(testLogger())
	c.AddCheck("status_file", ok)
	c.AddCheck("redis", broken)
	c.AddCheck("", ok)
	c.AddCheck("nil", nil)

	results := c.Check(context.Background())

	assert.Equal(t, map[string]string{
		"status_file": "OK",
		"redis":       "connection refused",
	}, results)
	assert.False(t, Healthy(results))
	assert.Equal(t, []string{"redis", "status_file"}, c.Names())
	ok.AssertExpectations(t)
	broken.AssertExpectations(t)
}

func TestStatusFileChecker(t *testing.T) {
	ctx := context.Background()
	store := statusfile.NewFileStore(afero.NewMemMapFs(), "/app/liveness.txt")
	checker := NewStatusFileChecker(store)

	assert.ErrorContains(t, checker.HealthCheck(ctx), "is missing")

	require.NoError(t, store.Write(ctx, "alive"))
	assert.NoError(t, checker.HealthCheck(ctx))
}

func TestLoopChecker(t *testing.T) {
	testCases := []struct {
		name    string
		snap    probe.Snapshot
		wantErr string
	}{
		{name: "alive", snap: probe.Snapshot{Phase: state.StateAlive, Writing: true, Checking: true}},
		{name: "not started", snap: probe.Snapshot{Phase: state.StateInit}, wantErr: "probe loop is init"},
		{name: "dead", snap: probe.Snapshot{Phase: state.StateDead}, wantErr: "probe loop is dead"},
		{name: "check chain stopped", snap: probe.Snapshot{Phase: state.StateAlive, Writing: true}, wantErr: "check chain stopped"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewLoopChecker(fixedSnapshot(tc.snap)).HealthCheck(context.Background())
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestHealthy_EmptyResults(t *testing.T) {
	assert.True(t, Healthy(map[string]string{}))
	assert.True(t, Healthy(NewChecker(nil).Check(context.Background())))
}

func TestCheckFunc(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("fn", CheckFunc(func(context.Context) error { return errors.New("down") }))

	assert.Equal(t, map[string]string{"fn": "down"}, c.Check(context.Background()))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
