package abstract

import (
	"context"
	"iter"
	"time"

	"github.com/datazip-inc/tap-toast/types"
)

type Config interface {
	Validate() error
}

type DriverInterface interface {
	GetConfigRef() Config
	Spec() any
	Type() string
	// specific to test & setup
	Setup(ctx context.Context) error
	IsAuthorized() bool
	// specific to discover
	Streams() []*types.Stream
	// lower bound for streams without a bookmark
	StartDate() time.Time
	// Read returns the lazy record sequence backing the stream, starting at bookmark
	Read(ctx context.Context, stream *types.Stream, bookmark time.Time) (iter.Seq2[types.Record, error], error)
}
