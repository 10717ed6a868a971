package types

import (
	"fmt"
	"slices"
	"sort"
)

// metadata keys understood in the root breadcrumb
const (
	selectedKey                = "selected"
	tableKeyPropertiesKey      = "table-key-properties"
	forcedReplicationMethodKey = "forced-replication-method"
	replicationMethodKey       = "replication-method"
	replicationKeyKey          = "replication-key"
	validReplicationKeysKey    = "valid-replication-keys"
	inclusionKey               = "inclusion"
)

// Catalog is the stream selection handed to sync and produced by discover
type Catalog struct {
	Streams []*ConfiguredStream `json:"streams"`
}

type MetadataEntry struct {
	Breadcrumb []string       `json:"breadcrumb"`
	Metadata   map[string]any `json:"metadata"`
}

// ConfiguredStream is one catalog entry together with the registry
// descriptor it was validated against.
type ConfiguredStream struct {
	TapStreamID   string          `json:"tap_stream_id"`
	StreamName    string          `json:"stream"`
	Schema        map[string]any  `json:"schema"`
	KeyProperties []string        `json:"key_properties,omitempty"`
	Metadata      []MetadataEntry `json:"metadata"`

	source *Stream
}

// NewCatalog builds the discovery catalog for the given descriptors.
func NewCatalog(streams ...*Stream) *Catalog {
	catalog := &Catalog{Streams: make([]*ConfiguredStream, 0, len(streams))}
	for _, stream := range streams {
		schema := stream.DefaultSchema()
		root := map[string]any{
			tableKeyPropertiesKey:      stream.KeyProperties,
			forcedReplicationMethodKey: string(stream.ReplicationMethod),
		}
		if stream.ReplicationKey != "" {
			root[validReplicationKeysKey] = []string{stream.ReplicationKey}
		}

		entries := []MetadataEntry{{Breadcrumb: []string{}, Metadata: root}}
		properties, _ := schema["properties"].(map[string]any)
		fields := make([]string, 0, len(properties))
		for field := range properties {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		automatic := stream.AutomaticFields()
		for _, field := range fields {
			inclusion := "available"
			if slices.Contains(automatic, field) {
				inclusion = "automatic"
			}
			entries = append(entries, MetadataEntry{
				Breadcrumb: []string{"properties", field},
				Metadata:   map[string]any{inclusionKey: inclusion},
			})
		}

		catalog.Streams = append(catalog.Streams, &ConfiguredStream{
			TapStreamID:   stream.Name,
			StreamName:    stream.Name,
			Schema:        schema,
			KeyProperties: stream.KeyProperties,
			Metadata:      entries,
			source:        stream,
		})
	}

	return catalog
}

func (c *ConfiguredStream) ID() string {
	if c.TapStreamID != "" {
		return c.TapStreamID
	}
	return c.StreamName
}

func (c *ConfiguredStream) Name() string {
	if c.StreamName != "" {
		return c.StreamName
	}
	return c.TapStreamID
}

// Source returns the registry descriptor set by Validate.
func (c *ConfiguredStream) Source() *Stream {
	return c.source
}

func (c *ConfiguredStream) rootMetadata() map[string]any {
	for _, entry := range c.Metadata {
		if len(entry.Breadcrumb) == 0 {
			return entry.Metadata
		}
	}
	return nil
}

func (c *ConfiguredStream) Selected() bool {
	selected, _ := c.rootMetadata()[selectedKey].(bool)
	return selected
}

func (c *ConfiguredStream) GetKeyProperties() []string {
	if keys := toStrings(c.rootMetadata()[tableKeyPropertiesKey]); len(keys) > 0 {
		return keys
	}
	if len(c.KeyProperties) > 0 {
		return c.KeyProperties
	}
	if c.source != nil {
		return c.source.KeyProperties
	}
	return nil
}

// ReplicationMethod prefers the user choice, then the forced method, then the registry.
func (c *ConfiguredStream) ReplicationMethod() ReplicationMethod {
	root := c.rootMetadata()
	for _, key := range []string{replicationMethodKey, forcedReplicationMethodKey} {
		if method, ok := root[key].(string); ok && method != "" {
			return ReplicationMethod(method)
		}
	}
	if c.source != nil {
		return c.source.ReplicationMethod
	}
	return FullTable
}

func (c *ConfiguredStream) ReplicationKey() string {
	if key, ok := c.rootMetadata()[replicationKeyKey].(string); ok && key != "" {
		return key
	}
	if c.source != nil {
		return c.source.ReplicationKey
	}
	return ""
}

// IsIncremental reports whether bookmarks are read and written for this stream.
func (c *ConfiguredStream) IsIncremental() bool {
	return c.ReplicationMethod() == Incremental
}

// Validate binds the entry to its registry descriptor and rejects settings
// the descriptor cannot honor.
func (c *ConfiguredStream) Validate(source *Stream) error {
	c.source = source

	switch method := c.ReplicationMethod(); method {
	case FullTable:
		return nil
	case Incremental:
		if !source.IsIncremental() {
			return fmt.Errorf("stream[%s] does not support %s replication", c.ID(), method)
		}
		if key := c.ReplicationKey(); key != source.ReplicationKey {
			return fmt.Errorf("replication key %q is not valid for stream[%s], expected %q", key, c.ID(), source.ReplicationKey)
		}
		return nil
	default:
		return fmt.Errorf("stream[%s] has unknown replication method %q", c.ID(), method)
	}
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
