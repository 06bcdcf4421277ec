package fetch

import (
	"context"
	"os"
	"strings"

	"github.com/jonathan/basket-scraper/internal/types"
)

// FileSource reads a previously saved document from disk. It satisfies the same
// Acquire contract as Acquirer, with the path standing in for the URL.
type FileSource struct{}

// Acquire reads path and tags the payload with the file provenance.
func (FileSource) Acquire(ctx context.Context, path string) (*types.RawPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AcquisitionError{URL: path, Attempts: []AttemptFailure{{Strategy: types.ProvenanceFile, Err: err}}}
	}

	data, err := os.ReadFile(path)
	if err == nil && strings.TrimSpace(string(data)) == "" {
		err = ErrEmptyContent
	}
	if err != nil {
		return nil, &AcquisitionError{URL: path, Attempts: []AttemptFailure{{Strategy: types.ProvenanceFile, Err: err}}}
	}

	return &types.RawPayload{URL: path, Text: string(data), Provenance: types.ProvenanceFile}, nil
}
