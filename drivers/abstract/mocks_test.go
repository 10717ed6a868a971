package abstract

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/datazip-inc/tap-toast/destination"
	"github.com/datazip-inc/tap-toast/types"
)

const memoryDestination types.DestinationType = "MEMORY"

// MemoryWriter keeps every message so tests can assert on ordering
type MemoryWriter struct {
	Messages []any
}

func (w *MemoryWriter) Type() string { return string(memoryDestination) }

func (w *MemoryWriter) Setup(_ io.Writer) error { return nil }

func (w *MemoryWriter) WriteSchema(_ context.Context, msg *types.Schema) error {
	w.Messages = append(w.Messages, *msg)
	return nil
}

func (w *MemoryWriter) WriteRecord(_ context.Context, msg *types.RecordRow) error {
	w.Messages = append(w.Messages, *msg)
	return nil
}

func (w *MemoryWriter) WriteState(_ context.Context, msg *types.StateRow) error {
	// snapshot, the driver keeps mutating the same document
	data, err := msg.Value.MarshalJSON()
	if err != nil {
		return err
	}
	snapshot := types.NewState()
	if err := snapshot.UnmarshalJSON(data); err != nil {
		return err
	}
	w.Messages = append(w.Messages, types.StateRow{Type: msg.Type, Value: snapshot})
	return nil
}

func (w *MemoryWriter) Close() error { return nil }

var lastWriter *MemoryWriter

func init() {
	destination.RegisteredWriters[memoryDestination] = func() destination.Writer {
		lastWriter = &MemoryWriter{}
		return lastWriter
	}
}

func createTestWriterPool() (*destination.WriterPool, *MemoryWriter, error) {
	pool, err := destination.NewWriter(memoryDestination, io.Discard, destination.WithClock(func() time.Time {
		return time.Date(2021, 1, 10, 0, 0, 0, 0, time.UTC)
	}))
	return pool, lastWriter, err
}

type mockConfig struct{}

func (c *mockConfig) Validate() error { return nil }

// MockDriver serves canned records per stream
type MockDriver struct {
	authorized bool
	startDate  time.Time
	streams    []*types.Stream
	readFunc   func(ctx context.Context, stream *types.Stream, bookmark time.Time) (iter.Seq2[types.Record, error], error)
	reads      map[string][]time.Time
}

func (m *MockDriver) GetConfigRef() Config { return &mockConfig{} }

func (m *MockDriver) Spec() any { return map[string]any{} }

func (m *MockDriver) Type() string { return "mock" }

func (m *MockDriver) Setup(_ context.Context) error { return nil }

func (m *MockDriver) IsAuthorized() bool { return m.authorized }

func (m *MockDriver) Streams() []*types.Stream { return m.streams }

func (m *MockDriver) StartDate() time.Time { return m.startDate }

func (m *MockDriver) Read(ctx context.Context, stream *types.Stream, bookmark time.Time) (iter.Seq2[types.Record, error], error) {
	if m.reads == nil {
		m.reads = map[string][]time.Time{}
	}
	m.reads[stream.Name] = append(m.reads[stream.Name], bookmark)
	return m.readFunc(ctx, stream, bookmark)
}

// staticRecords serves the same records for every call
func staticRecords(records map[string][]types.Record) func(context.Context, *types.Stream, time.Time) (iter.Seq2[types.Record, error], error) {
	return func(_ context.Context, stream *types.Stream, _ time.Time) (iter.Seq2[types.Record, error], error) {
		return func(yield func(types.Record, error) bool) {
			for _, record := range records[stream.Name] {
				if !yield(record, nil) {
					return
				}
			}
		}, nil
	}
}

var (
	ordersStream = &types.Stream{Name: "orders", ReplicationMethod: types.Incremental, ReplicationKey: "modifiedDate", KeyProperties: []string{"guid"}}
	menusStream  = &types.Stream{Name: "menus", ReplicationMethod: types.FullTable, KeyProperties: []string{"guid"}}
)

// selectedCatalog marks every discovered stream selected
func selectedCatalog(streams ...*types.Stream) *types.Catalog {
	catalog := types.NewCatalog(streams...)
	for _, stream := range catalog.Streams {
		stream.Metadata[0].Metadata["selected"] = true
	}
	return catalog
}
