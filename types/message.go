package types

// Record is one upstream entity as decoded from the API
type Record map[string]any

// Schema declares a stream before any of its records
type Schema struct {
	Type               MessageType    `json:"type"`
	Stream             string         `json:"stream"`
	Schema             map[string]any `json:"schema"`
	KeyProperties      []string       `json:"key_properties"`
	BookmarkProperties []string       `json:"bookmark_properties,omitempty"`
}

// RecordRow carries a single record tagged with its stream
type RecordRow struct {
	Type          MessageType `json:"type"`
	Stream        string      `json:"stream"`
	Record        Record      `json:"record"`
	TimeExtracted string      `json:"time_extracted,omitempty"`
}

// StateRow carries the full state document
type StateRow struct {
	Type  MessageType `json:"type"`
	Value *State      `json:"value"`
}

// StatusRow is the result of a connection check
type StatusRow struct {
	Status  ConnectionStatus `json:"status,omitempty"`
	Message string           `json:"message,omitempty"`
}

type ConnectionStatusRow struct {
	Type             MessageType `json:"type"`
	ConnectionStatus *StatusRow  `json:"connectionStatus"`
}

type SpecRow struct {
	Type MessageType    `json:"type"`
	Spec map[string]any `json:"spec"`
}
