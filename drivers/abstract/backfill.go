package abstract

import (
	"context"
	"fmt"

	"github.com/datazip-inc/tap-toast/destination"
	"github.com/datazip-inc/tap-toast/types"
)

// FullRefresh emits the whole stream. State is neither read nor written.
func (a *AbstractDriver) FullRefresh(ctx context.Context, pool *destination.WriterPool, stream *types.ConfiguredStream) (int64, error) {
	records, err := a.driver.Read(ctx, stream.Source(), a.driver.StartDate())
	if err != nil {
		return 0, fmt.Errorf("failed to read stream: %w", err)
	}

	var count int64
	for record, err := range records {
		if err != nil {
			return count, err
		}
		if err := pool.Record(ctx, stream.Name(), record); err != nil {
			return count, fmt.Errorf("failed to write record: %s", err)
		}
		count++
	}

	return count, nil
}
