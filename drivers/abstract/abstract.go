package abstract

import (
	"context"
	"fmt"
	"sync"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/destination"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/datazip-inc/tap-toast/utils"
	"github.com/datazip-inc/tap-toast/utils/logger"
)

type StreamStatus string

const (
	NotStarted StreamStatus = "NOT_STARTED"
	InProgress StreamStatus = "IN_PROGRESS"
	Completed  StreamStatus = "COMPLETED"
)

type AbstractDriver struct { //nolint:gosec,revive
	driver   DriverInterface
	state    *types.State
	mu       sync.Mutex
	progress map[string]StreamStatus
}

func NewAbstractDriver(_ context.Context, driver DriverInterface) *AbstractDriver {
	return &AbstractDriver{
		driver:   driver,
		state:    types.NewState(),
		progress: map[string]StreamStatus{},
	}
}

func (a *AbstractDriver) SetupState(state *types.State) {
	if state == nil {
		state = types.NewState()
	}
	a.state = state
}

func (a *AbstractDriver) State() *types.State {
	return a.state
}

func (a *AbstractDriver) GetConfigRef() Config {
	return a.driver.GetConfigRef()
}

func (a *AbstractDriver) Spec() any {
	return a.driver.Spec()
}

func (a *AbstractDriver) Type() string {
	return a.driver.Type()
}

func (a *AbstractDriver) Setup(ctx context.Context) error {
	return a.driver.Setup(ctx)
}

// Discover validates the registry and builds the catalog from it.
func (a *AbstractDriver) Discover(_ context.Context) (*types.Catalog, error) {
	streams := a.driver.Streams()
	if len(streams) == 0 {
		return nil, fmt.Errorf("no streams found in connector")
	}

	err := utils.ForEach(streams, func(stream *types.Stream) error {
		return stream.Validate()
	})
	if err != nil {
		return nil, fmt.Errorf("invalid stream registry: %s", err)
	}

	return types.NewCatalog(streams...), nil
}

// Status reports where a stream is in the current run.
func (a *AbstractDriver) Status(streamID string) StreamStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	if status, found := a.progress[streamID]; found {
		return status
	}
	return NotStarted
}

func (a *AbstractDriver) setStatus(streamID string, status StreamStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progress[streamID] = status
}

// Sync runs every selected catalog stream one at a time in catalog order.
// State is flushed after each stream and once more at the end.
func (a *AbstractDriver) Sync(ctx context.Context, pool *destination.WriterPool, catalog *types.Catalog) error {
	if !a.driver.IsAuthorized() {
		return constants.ErrNotAuthorized
	}

	sources := types.StreamsToMap(a.driver.Streams()...)
	err := utils.ForEach(catalog.Streams, func(stream *types.ConfiguredStream) error {
		if !stream.Selected() {
			logger.Infof("%s: Skipping - not selected", stream.ID())
			return nil
		}

		source, found := sources[stream.ID()]
		if !found {
			logger.Warnf("Skipping; Configured Stream %s not found in source", stream.ID())
			return nil
		}
		if err := stream.Validate(source); err != nil {
			logger.Warnf("Skipping; Configured Stream %s found invalid due to reason: %s", stream.ID(), err)
			return nil
		}

		return a.syncStream(ctx, pool, stream)
	})
	if err != nil {
		return err
	}

	if err := pool.Flush(ctx, a.state); err != nil {
		return fmt.Errorf("failed to write final state: %s", err)
	}
	logger.LogState(a.state)
	logger.Infof("Finished sync (%d rows)", pool.TotalRecords())
	return nil
}

func (a *AbstractDriver) syncStream(ctx context.Context, pool *destination.WriterPool, stream *types.ConfiguredStream) error {
	a.setStatus(stream.ID(), InProgress)

	// schema goes out before any record of the stream
	if err := pool.Schema(ctx, stream); err != nil {
		return fmt.Errorf("failed to write schema for stream[%s]: %s", stream.ID(), err)
	}

	logger.Infof("%s: Starting sync", stream.ID())
	var (
		count int64
		err   error
	)
	if stream.IsIncremental() {
		count, err = a.Incremental(ctx, pool, stream)
	} else {
		count, err = a.FullRefresh(ctx, pool, stream)
	}
	if err != nil {
		return fmt.Errorf("failed to sync stream[%s]: %w", stream.ID(), err)
	}

	if err := pool.Flush(ctx, a.state); err != nil {
		return fmt.Errorf("failed to write state after stream[%s]: %s", stream.ID(), err)
	}
	logger.LogState(a.state)

	a.setStatus(stream.ID(), Completed)
	logger.Infof("%s: Completed sync (%d rows)", stream.ID(), count)
	return nil
}
