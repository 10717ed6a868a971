package destination

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/datazip-inc/tap-toast/telemetry"
	"github.com/datazip-inc/tap-toast/types"
)

type NewFunc func() Writer

var RegisteredWriters = map[types.DestinationType]NewFunc{}

type Options struct {
	Now func() time.Time
}

type WriterOption func(opt *Options)

// WithClock fixes time_extracted, used by tests
func WithClock(now func() time.Time) WriterOption {
	return func(opt *Options) {
		opt.Now = now
	}
}

// WriterPool wraps the registered writer with per stream counts. Bookmark
// write-through skips state documents identical to the last one written,
// boundary flushes never do.
type WriterPool struct {
	writer       Writer
	now          func() time.Time
	records      map[string]int64
	totalRecords int64
	lastState    uint64
	stateWritten bool
}

func NewWriter(destinationType types.DestinationType, out io.Writer, opts ...WriterOption) (*WriterPool, error) {
	newFunc, found := RegisteredWriters[destinationType]
	if !found {
		return nil, fmt.Errorf("invalid destination type has been passed [%s]", destinationType)
	}

	options := &Options{Now: time.Now}
	for _, opt := range opts {
		opt(options)
	}

	writer := newFunc()
	if err := writer.Setup(out); err != nil {
		return nil, fmt.Errorf("failed to setup %s writer: %s", writer.Type(), err)
	}

	return &WriterPool{
		writer:  writer,
		now:     options.Now,
		records: map[string]int64{},
	}, nil
}

// Schema declares the stream; bookmark properties only apply to incremental streams.
func (w *WriterPool) Schema(ctx context.Context, stream *types.ConfiguredStream) error {
	schema := stream.Schema
	if schema == nil && stream.Source() != nil {
		schema = stream.Source().DefaultSchema()
	}

	msg := &types.Schema{
		Type:          types.SchemaMessage,
		Stream:        stream.Name(),
		Schema:        schema,
		KeyProperties: stream.GetKeyProperties(),
	}
	if msg.KeyProperties == nil {
		msg.KeyProperties = []string{}
	}
	if stream.IsIncremental() {
		msg.BookmarkProperties = []string{stream.ReplicationKey()}
	}

	return w.writer.WriteSchema(ctx, msg)
}

func (w *WriterPool) Record(ctx context.Context, stream string, record types.Record) error {
	err := w.writer.WriteRecord(ctx, &types.RecordRow{
		Type:          types.RecordMessage,
		Stream:        stream,
		Record:        record,
		TimeExtracted: w.now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}

	w.records[stream]++
	w.totalRecords++
	telemetry.RecordEmitted(stream)
	return nil
}

// State writes the document unless it matches the previous write. Used for
// the write-through of bookmark advances.
func (w *WriterPool) State(ctx context.Context, state *types.State) error {
	hash, err := state.Hash()
	if err != nil {
		return fmt.Errorf("failed to hash state: %s", err)
	}
	if w.stateWritten && hash == w.lastState {
		return nil
	}

	return w.writeState(ctx, state, hash)
}

// Flush always writes the document, marking a stream or sync boundary.
func (w *WriterPool) Flush(ctx context.Context, state *types.State) error {
	hash, err := state.Hash()
	if err != nil {
		return fmt.Errorf("failed to hash state: %s", err)
	}

	return w.writeState(ctx, state, hash)
}

func (w *WriterPool) writeState(ctx context.Context, state *types.State, hash uint64) error {
	if err := w.writer.WriteState(ctx, &types.StateRow{Type: types.StateMessage, Value: state}); err != nil {
		return err
	}

	w.lastState = hash
	w.stateWritten = true
	return nil
}

func (w *WriterPool) Records(stream string) int64 {
	return w.records[stream]
}

func (w *WriterPool) TotalRecords() int64 {
	return w.totalRecords
}

func (w *WriterPool) Close() error {
	return w.writer.Close()
}
