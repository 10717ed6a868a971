package types

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTripKeepsPassThroughFields(t *testing.T) {
	input := `{"bookmarks":{"orders":{"modifiedDate":"2021-01-02T00:00:00.000+0000"}},"currently_syncing":"orders","version":3}`

	state := &State{}
	require.NoError(t, json.Unmarshal([]byte(input), state))

	value, found := state.GetBookmark("orders", "modifiedDate")
	require.True(t, found)
	assert.Equal(t, "2021-01-02T00:00:00.000+0000", value)

	out, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestStateBookmarks(t *testing.T) {
	state := NewState()
	assert.True(t, state.IsZero())

	_, found := state.GetBookmark("payments", "paidDate")
	assert.False(t, found)

	state.SetBookmark("payments", "paidDate", "2021-03-01T10:00:00Z")
	value, found := state.GetBookmark("payments", "paidDate")
	assert.True(t, found)
	assert.Equal(t, "2021-03-01T10:00:00Z", value)
	assert.False(t, state.IsZero())
}

func TestStateEmptyDocument(t *testing.T) {
	state := &State{}
	require.NoError(t, json.Unmarshal([]byte(`{}`), state))
	assert.True(t, state.IsZero())

	out, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"bookmarks":{}}`, string(out))
}

func TestStateHashFollowsContent(t *testing.T) {
	first := NewState()
	second := NewState()

	h1, err := first.Hash()
	require.NoError(t, err)
	h2, err := second.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	second.SetBookmark("orders", "modifiedDate", "2021-01-01T00:00:00Z")
	h3, err := second.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestStateNonStringBookmark(t *testing.T) {
	state := &State{}
	require.NoError(t, json.Unmarshal([]byte(`{"bookmarks":{"orders":{"modifiedDate":20210101}}}`), state))

	value, found := state.GetBookmark("orders", "modifiedDate")
	assert.True(t, found)
	assert.Equal(t, "20210101", value)
}
