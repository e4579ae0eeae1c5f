package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"procintel/internal/importer"
	"procintel/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const header = "SEQ;Nº SEI;OBJETO;RESPONSÁVEL;TIPO;MODALIDADE;DATA CHEGADA;DATA SAÍDA;OBSERVAÇÕES\n"

const oneRow = header + "1;12345-678.2024;Papel;DIEGO;2.COTAÇÃO;LICITAR;01/06/2024;;\n"

const twoRows = oneRow + "2;22222-222.2024;Limpeza;KAREN;8.PNCP;ADITIVO;01/04/2024;15/04/2024;\n"

type memSink struct {
	mu    sync.Mutex
	snaps []types.Snapshot
	err   error
}

func (m *memSink) SaveSnapshot(_ context.Context, s types.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snaps = append(m.snaps, s)
	return nil
}

func (m *memSink) last() (types.Snapshot, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snaps) == 0 {
		return types.Snapshot{}, 0
	}
	return m.snaps[len(m.snaps)-1], len(m.snaps)
}

func writeSheet(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestReloadPublishesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processos.csv")
	writeSheet(t, path, twoRows)
	sink := &memSink{}

	var got *importer.Result
	w, err := New(path, importer.New(), sink, OnReload(func(r *importer.Result) { got = r }))
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.Reload(context.Background()))
	snap, n := sink.last()
	assert.Equal(t, 1, n)
	assert.Len(t, snap.Processes, 1)
	assert.Len(t, snap.Completed, 1)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Rows)

	stats := w.GetStats()
	assert.Equal(t, 1, stats.Reloads)
	assert.Equal(t, 2, stats.LastRows)
}

func TestReloadMissingFileIsSkipped(t *testing.T) {
	sink := &memSink{}
	w, err := New(filepath.Join(t.TempDir(), "nope.csv"), importer.New(), sink)
	require.NoError(t, err)
	defer w.Stop()

	assert.NoError(t, w.Reload(context.Background()))
	_, n := sink.last()
	assert.Zero(t, n)
}

func TestReloadErrorsAreCounted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processos.csv")
	writeSheet(t, path, twoRows)
	sink := &memSink{err: errors.New("read-only")}

	w, err := New(path, importer.New(), sink)
	require.NoError(t, err)
	defer w.Stop()

	err = w.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	writeSheet(t, path, "")
	sink.err = nil
	require.Error(t, w.Reload(context.Background()))
	assert.Equal(t, 2, w.GetStats().Errors)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processos.csv")
	writeSheet(t, path, oneRow)
	sink := &memSink{}

	w, err := New(path, importer.New(), sink, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()
	assert.True(t, w.IsWatching())

	_, n := sink.last()
	require.Equal(t, 1, n, "initial import on start")

	// Unrelated files in the same directory are ignored.
	writeSheet(t, filepath.Join(dir, "other.csv"), twoRows)
	writeSheet(t, path, twoRows)

	require.Eventually(t, func() bool {
		snap, n := sink.last()
		return n >= 2 && len(snap.Completed) == 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestStartIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processos.csv")
	w, err := New(path, importer.New(), &memSink{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	w.Stop()
	assert.False(t, w.IsWatching())
	w.Stop()
}
