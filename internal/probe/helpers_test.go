package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/liveness-probe/internal/statusfile"
)

const testPath = "/app/liveness.txt"

// sequenceRandom returns values in order and then repeats the last one.
type sequenceRandom struct {
	mu     sync.Mutex
	values []int
	calls  int
}

func newSequence(values ...int) *sequenceRandom {
	return &sequenceRandom{values: values}
}

func (r *sequenceRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.calls
	if idx >= len(r.values) {
		idx = len(r.values) - 1
	}
	r.calls++
	return r.values[idx] % n
}

func (r *sequenceRandom) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// flakyStore fails writes once failAfter successful writes happened.
type flakyStore struct {
	*statusfile.FileStore
	mu        sync.Mutex
	writes    int
	failAfter int
}

func (s *flakyStore) Write(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writes >= s.failAfter {
		return errors.New("no space left on device")
	}
	s.writes++
	return s.FileStore.Write(ctx, content)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, status Status) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}

func (m *mockPublisher) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// syncBuffer guards log output read while Run is writing it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// records decodes the JSON log lines written to the buffer.
func (b *syncBuffer) records(t *testing.T) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func newTestLoop(t *testing.T, rnd Random, opts ...Option) (*Loop, afero.Fs, *syncBuffer) {
	t.Helper()

	fsys := afero.NewMemMapFs()
	buf := &syncBuffer{}
	log := slog.New(slog.NewJSONHandler(buf, nil))

	l, err := New(Config{Interval: time.Second, InitialDelay: time.Second}, statusfile.NewFileStore(fsys, testPath), rnd, log, opts...)
	require.NoError(t, err)
	return l, fsys, buf
}

func readStatus(t *testing.T, fsys afero.Fs) string {
	t.Helper()

	data, err := afero.ReadFile(fsys, testPath)
	require.NoError(t, err)
	return string(data)
}

func fileExists(t *testing.T, fsys afero.Fs) bool {
	t.Helper()

	ok, err := afero.Exists(fsys, testPath)
	require.NoError(t, err)
	return ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
