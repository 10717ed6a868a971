package driver

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/drivers/abstract"
	"github.com/datazip-inc/tap-toast/types"
)

// Toast extracts restaurant data from the Toast REST API
type Toast struct {
	// HTTPClient and Now are replaceable for tests
	HTTPClient *http.Client
	Now        func() time.Time

	config    *Config
	auth      *Authenticator
	extractor *extractor
	streams   map[string]streamEntry
}

func (t *Toast) GetConfigRef() abstract.Config {
	t.config = &Config{}
	return t.config
}

func (t *Toast) Spec() any {
	return Config{}
}

func (t *Toast) Type() string {
	return "toast"
}

// Setup validates the configuration and obtains the first credential
func (t *Toast) Setup(ctx context.Context) error {
	if t.config == nil {
		return fmt.Errorf("%w: config not loaded", ErrConfiguration)
	}
	if err := t.config.Validate(); err != nil {
		return err
	}

	if t.HTTPClient == nil {
		t.HTTPClient = &http.Client{}
	}
	if t.Now == nil {
		t.Now = time.Now
	}

	t.auth = NewAuthenticator(t.config, t.HTTPClient, t.Now)
	client := NewClient(t.config, t.HTTPClient, t.auth)
	t.extractor = &extractor{client: client, config: t.config, now: t.Now}

	t.streams = map[string]streamEntry{}
	for _, entry := range registry() {
		t.streams[entry.stream.Name] = entry
	}

	return client.Authorize(ctx)
}

func (t *Toast) IsAuthorized() bool {
	return t.auth != nil && t.auth.IsAuthorized()
}

func (t *Toast) Streams() []*types.Stream {
	entries := registry()
	streams := make([]*types.Stream, 0, len(entries))
	for _, entry := range entries {
		streams = append(streams, entry.stream)
	}
	return streams
}

func (t *Toast) StartDate() time.Time {
	if t.config == nil {
		return time.Time{}
	}
	return t.config.startDate
}

func (t *Toast) Read(ctx context.Context, stream *types.Stream, bookmark time.Time) (iter.Seq2[types.Record, error], error) {
	if t.extractor == nil {
		return nil, fmt.Errorf("driver not set up")
	}
	entry, found := t.streams[stream.Name]
	if !found {
		return nil, fmt.Errorf("%w: %s", constants.ErrStreamNotFound, stream.Name)
	}
	return entry.fetch(ctx, t.extractor, bookmark), nil
}
