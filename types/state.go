package types

import (
	"bytes"
	"fmt"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/goccy/go-json"
	"github.com/mitchellh/hashstructure"
)

// State is the persisted sync document. Only bookmarks are interpreted,
// every other top-level field passes through untouched.
type State struct {
	Bookmarks map[string]map[string]any
	extra     map[string]json.RawMessage
}

func NewState() *State {
	return &State{Bookmarks: map[string]map[string]any{}}
}

// GetBookmark returns the stored value for the stream's replication key.
func (s *State) GetBookmark(stream, key string) (string, bool) {
	value, found := s.Bookmarks[stream][key]
	if !found || value == nil {
		return "", false
	}
	if str, ok := value.(string); ok {
		return str, str != ""
	}
	return fmt.Sprint(value), true
}

func (s *State) SetBookmark(stream, key, value string) {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]map[string]any{}
	}
	if s.Bookmarks[stream] == nil {
		s.Bookmarks[stream] = map[string]any{}
	}
	s.Bookmarks[stream][key] = value
}

func (s *State) IsZero() bool {
	return len(s.Bookmarks) == 0 && len(s.extra) == 0
}

// Hash identifies the document content, used to skip repeated flushes.
func (s *State) Hash() (uint64, error) {
	return hashstructure.Hash(struct {
		Bookmarks map[string]map[string]any
		Extra     map[string]json.RawMessage
	}{s.Bookmarks, s.extra}, nil)
}

func (s *State) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(s.extra)+1)
	for key, raw := range s.extra {
		doc[key] = raw
	}
	bookmarks := s.Bookmarks
	if bookmarks == nil {
		bookmarks = map[string]map[string]any{}
	}
	doc[constants.BookmarksKey] = bookmarks

	return json.Marshal(doc)
}

func (s *State) UnmarshalJSON(data []byte) error {
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal state: %s", err)
	}

	s.Bookmarks = map[string]map[string]any{}
	if raw, found := doc[constants.BookmarksKey]; found {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&s.Bookmarks); err != nil {
			return fmt.Errorf("failed to unmarshal bookmarks: %s", err)
		}
		if s.Bookmarks == nil {
			s.Bookmarks = map[string]map[string]any{}
		}
		delete(doc, constants.BookmarksKey)
	}
	s.extra = doc

	return nil
}
