package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/basket-scraper/internal/types"
)

func TestFileSource_ReadsDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basket.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<basketDayArchives/>`), 0644))

	payload, err := FileSource{}.Acquire(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, types.ProvenanceFile, payload.Provenance)
	assert.Equal(t, path, payload.URL)
	assert.Equal(t, `<basketDayArchives/>`, payload.Text)
}

func TestFileSource_Failures(t *testing.T) {
	dir := t.TempDir()
	blank := filepath.Join(dir, "blank.xml")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0644))

	for _, path := range []string{filepath.Join(dir, "missing.xml"), blank} {
		payload, err := FileSource{}.Acquire(context.Background(), path)
		assert.Nil(t, payload)
		assert.ErrorIs(t, err, ErrNoContent)

		var acqErr *AcquisitionError
		require.ErrorAs(t, err, &acqErr)
		require.Len(t, acqErr.Attempts, 1)
		assert.Equal(t, types.ProvenanceFile, acqErr.Attempts[0].Strategy)
	}
}

func TestFileSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FileSource{}.Acquire(ctx, "unused.xml")
	assert.ErrorIs(t, err, context.Canceled)
}
