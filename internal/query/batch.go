package query

import (
	"context"
	"errors"
	"fmt"

	"typequery/internal/connection"
)

// ErrInvalidBatchSize is returned when a batched operation is given a
// non-positive batch size. It is raised before any round trip happens.
var ErrInvalidBatchSize = errors.New("batch size must be a positive integer")

// inBatches partitions subjects into consecutive chunks of batchSize and
// runs fetch once per chunk, strictly in order. The next chunk is never
// issued before the previous one has returned. Results are concatenated
// in chunk order, so the output order matches the input order as long as
// fetch preserves order within a chunk.
func inBatches[S, R any](
	ctx context.Context,
	conn connection.Connection,
	subjects []S,
	batchSize int,
	fetch func(context.Context, connection.Connection, []S) ([]R, error),
) ([]R, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidBatchSize, batchSize)
	}

	results := make([]R, 0, len(subjects))
	for start := 0; start < len(subjects); start += batchSize {
		end := start + batchSize
		if end > len(subjects) {
			end = len(subjects)
		}
		batch, err := fetch(ctx, conn, subjects[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}
