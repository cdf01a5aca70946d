package asset_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stupid-simple/assetkeeper/asset"
)

func TestScanDirectory(t *testing.T) {
	tempDir := t.TempDir()

	testFiles := []string{
		"1686222236683.png",
		"1686222236683-small.png",
		"1763475692261.mp4",
	}
	for _, filename := range testFiles {
		err := os.WriteFile(filepath.Join(tempDir, filename), []byte("test content"), 0644)
		require.NoError(t, err)
	}

	seq, err := asset.ScanDirectory(context.Background(), tempDir, zerolog.Nop())
	require.NoError(t, err)

	var names []string
	for f := range seq {
		assert.Equal(t, int64(12), f.Size)
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, testFiles, names)
}

func TestScanDirectory_CancelledContext(t *testing.T) {
	tempDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tempDir, "a.jpg"), []byte("x"), 0644)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq, err := asset.ScanDirectory(ctx, tempDir, zerolog.Nop())
	require.NoError(t, err)

	count := 0
	for range seq {
		count++
	}
	assert.Zero(t, count)
}

func TestScanDirectory_StopEarly(t *testing.T) {
	tempDir := t.TempDir()
	for _, filename := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		err := os.WriteFile(filepath.Join(tempDir, filename), []byte("x"), 0644)
		require.NoError(t, err)
	}

	seq, err := asset.ScanDirectory(context.Background(), tempDir, zerolog.Nop())
	require.NoError(t, err)

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}
