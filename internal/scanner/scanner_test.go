package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
	"github.com/Aman-CERP/filesweep/internal/rules"
)

func collect(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var out []string
	for p := range ch {
		out = append(out, filepath.Base(p))
	}
	return out
}

func TestScan_MatchesDirectEntries(t *testing.T) {
	// Given: a directory with matching and non-matching files
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "d.txt"), []byte("x"), 0o644))

	matcher, err := rules.New([]string{".txt"}, "")
	require.NoError(t, err)

	// When: scanning non-recursively
	ch, err := New(matcher).Scan(context.Background(), Options{RootDir: dir})
	require.NoError(t, err)

	// Then: only direct .txt entries appear
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, collect(t, ch))
}

func TestScan_Recursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "top.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "deep.txt"), []byte("x"), 0o644))

	matcher, err := rules.New([]string{".txt"}, "")
	require.NoError(t, err)

	ch, err := New(matcher).Scan(context.Background(), Options{RootDir: dir, Recursive: true})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"top.txt", "deep.txt"}, collect(t, ch))
}

func TestScan_InvalidRootFailsSynchronously(t *testing.T) {
	matcher, err := rules.New(nil, "")
	require.NoError(t, err)

	_, err = New(matcher).Scan(context.Background(), Options{RootDir: filepath.Join(t.TempDir(), "gone")})
	require.Error(t, err)
	assert.Equal(t, sweeperr.ErrCodeScanFailed, sweeperr.CodeOf(err))
}

func TestScan_RootIsFileFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	matcher, err := rules.New(nil, "")
	require.NoError(t, err)

	_, err = New(matcher).Scan(context.Background(), Options{RootDir: file})
	require.Error(t, err)
}

func TestScan_CancelledContextStops(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f"+string(rune('a'+i))+".txt"), []byte("x"), 0o644))
	}

	matcher, err := rules.New([]string{".txt"}, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := New(matcher).Scan(ctx, Options{RootDir: dir})
	require.NoError(t, err)

	// The channel closes without necessarily delivering everything
	got := collect(t, ch)
	assert.LessOrEqual(t, len(got), 20)
}
