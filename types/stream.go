package types

import (
	"fmt"
	"slices"
)

// Stream describes one extractable resource and how it replicates.
type Stream struct {
	Name              string            `json:"name"`
	ReplicationMethod ReplicationMethod `json:"replication_method"`
	ReplicationKey    string            `json:"replication_key,omitempty"`
	KeyProperties     []string          `json:"key_properties"`
}

func (s *Stream) ID() string {
	return s.Name
}

func (s *Stream) IsIncremental() bool {
	return s.ReplicationMethod == Incremental
}

func (s *Stream) Validate() error {
	switch s.ReplicationMethod {
	case Incremental:
		if s.ReplicationKey == "" {
			return fmt.Errorf("stream[%s] replicates incrementally without a replication key", s.Name)
		}
	case FullTable:
	default:
		return fmt.Errorf("stream[%s] has unknown replication method %q", s.Name, s.ReplicationMethod)
	}
	if len(s.KeyProperties) == 0 {
		return fmt.Errorf("stream[%s] has no key properties", s.Name)
	}
	return nil
}

// AutomaticFields are always emitted regardless of field selection.
func (s *Stream) AutomaticFields() []string {
	fields := slices.Clone(s.KeyProperties)
	if s.ReplicationKey != "" && !slices.Contains(fields, s.ReplicationKey) {
		fields = append(fields, s.ReplicationKey)
	}
	return fields
}

// DefaultSchema is a permissive object schema that pins the automatic fields.
func (s *Stream) DefaultSchema() map[string]any {
	properties := map[string]any{}
	for _, field := range s.AutomaticFields() {
		property := map[string]any{"type": []string{"null", "string"}}
		if field == s.ReplicationKey {
			property["format"] = "date-time"
		}
		properties[field] = property
	}

	return map[string]any{
		"type":                 []string{"null", "object"},
		"additionalProperties": true,
		"properties":           properties,
	}
}

func StreamsToMap(streams ...*Stream) map[string]*Stream {
	output := make(map[string]*Stream, len(streams))
	for _, stream := range streams {
		output[stream.ID()] = stream
	}

	return output
}
