package abstract

import (
	"context"
	"fmt"
	"time"

	"github.com/datazip-inc/tap-toast/destination"
	"github.com/datazip-inc/tap-toast/telemetry"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/datazip-inc/tap-toast/utils/typeutils"
)

// Incremental reads the stream from its bookmark (or the start date) and
// writes the bookmark through to state whenever a record moves it forward.
func (a *AbstractDriver) Incremental(ctx context.Context, pool *destination.WriterPool, stream *types.ConfiguredStream) (int64, error) {
	key := stream.ReplicationKey()
	bookmark, err := a.bookmark(stream.ID(), key)
	if err != nil {
		return 0, err
	}
	logger.Infof("%s: Syncing from bookmark %s", stream.ID(), bookmark.Format(time.RFC3339))

	records, err := a.driver.Read(ctx, stream.Source(), bookmark)
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

		value, found := record[key]
		if !found || value == nil {
			continue
		}
		newer, err := typeutils.IsAfter(value, bookmark)
		if err != nil {
			logger.Debugf("%s: ignoring replication value %v: %s", stream.ID(), value, err)
			continue
		}
		if !newer {
			continue
		}

		bookmark, _ = typeutils.ParseTimestamp(value)
		a.state.SetBookmark(stream.ID(), key, bookmarkValue(value, bookmark))
		telemetry.TrackBookmark(stream.ID(), bookmark)
		if err := pool.State(ctx, a.state); err != nil {
			return count, fmt.Errorf("failed to write state: %s", err)
		}
	}

	return count, nil
}

func (a *AbstractDriver) bookmark(streamID, key string) (time.Time, error) {
	value, found := a.state.GetBookmark(streamID, key)
	if !found {
		return a.driver.StartDate(), nil
	}

	bookmark, err := typeutils.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid bookmark %q for stream[%s]: %s", value, streamID, err)
	}
	return bookmark, nil
}

// bookmarkValue keeps upstream strings verbatim, anything else is stored as RFC3339.
func bookmarkValue(value any, parsed time.Time) string {
	if str, ok := value.(string); ok {
		return str
	}
	return parsed.UTC().Format(time.RFC3339Nano)
}
