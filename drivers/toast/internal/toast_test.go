package driver

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/destination"
	"github.com/datazip-inc/tap-toast/drivers/abstract"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/datazip-inc/tap-toast/writers/singer"
)

func TestRegistry(t *testing.T) {
	streams := (&Toast{}).Streams()
	require.Len(t, streams, 29)

	incremental := map[string]string{}
	seen := map[string]bool{}
	for _, stream := range streams {
		require.NoError(t, stream.Validate())
		assert.False(t, seen[stream.Name], "duplicate stream %s", stream.Name)
		seen[stream.Name] = true
		assert.Equal(t, []string{"guid"}, stream.KeyProperties)
		if stream.IsIncremental() {
			incremental[stream.Name] = stream.ReplicationKey
		} else {
			assert.Empty(t, stream.ReplicationKey)
		}
	}

	assert.Equal(t, map[string]string{
		"cash_management_entries":  "date",
		"cash_management_deposits": "date",
		"orders":                   "modifiedDate",
		"payments":                 "paidDate",
	}, incremental)
	for _, name := range []string{"employees", "menus", "menu_items", "tax_rates", "void_reasons", "restaurants", "tip_withholding"} {
		assert.True(t, seen[name], name)
	}
}

func TestConfigPaths(t *testing.T) {
	assert.Equal(t, "config/v2/alternatePaymentTypes", configPath("alternate_payment_types"))
	assert.Equal(t, "config/v2/tipWithholding", configPath("tip_withholding"))
	assert.Equal(t, "config/v2/menus", configPath("menus"))
	assert.Equal(t, "config/v2/preModifiers", configPath("premodifiers"))
}

func TestReadUnknownStream(t *testing.T) {
	f := newFakeToast(t)
	driver := newTestToast(t, f, testNow)

	_, err := driver.Read(context.Background(), &types.Stream{Name: "gift_cards"}, testNow)
	assert.ErrorIs(t, err, constants.ErrStreamNotFound)
}

func TestSetupRequiresConfig(t *testing.T) {
	err := (&Toast{}).Setup(context.Background())
	assert.ErrorIs(t, err, ErrConfiguration)

	driver := &Toast{}
	config, ok := driver.GetConfigRef().(*Config)
	require.True(t, ok)
	config.ClientID = "only-id"
	assert.ErrorIs(t, driver.Setup(context.Background()), ErrConfiguration)
	assert.False(t, driver.IsAuthorized())
}

type message struct {
	Type   types.MessageType `json:"type"`
	Stream string            `json:"stream"`
	Record map[string]any    `json:"record"`
	Value  *types.State      `json:"value"`
}

func syncCatalog(t *testing.T, driver *Toast, state *types.State, names ...string) []message {
	t.Helper()
	connector := abstract.NewAbstractDriver(context.Background(), driver)
	connector.SetupState(state)

	catalog, err := connector.Discover(context.Background())
	require.NoError(t, err)
	for _, stream := range catalog.Streams {
		for _, name := range names {
			if stream.ID() == name {
				stream.Metadata[0].Metadata["selected"] = true
			}
		}
	}

	out := &bytes.Buffer{}
	pool, err := destination.NewWriter(types.Singer, out)
	require.NoError(t, err)
	require.NoError(t, connector.Sync(context.Background(), pool, catalog))
	require.NoError(t, pool.Close())

	var messages []message
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var msg message
		require.NoError(t, json.Unmarshal([]byte(line), &msg), line)
		messages = append(messages, msg)
	}
	return messages
}

func TestOrdersBulkEndToEnd(t *testing.T) {
	f := newFakeToast(t)
	bulkPages(f, 100, 50, 0)
	driver := &Toast{
		HTTPClient: f.server.Client(),
		Now:        func() time.Time { return time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC) },
	}
	config, ok := driver.GetConfigRef().(*Config)
	require.True(t, ok)
	*config = *testConfig(f.server.URL)
	config.StartDate = "2021-01-01"
	require.NoError(t, driver.Setup(context.Background()))

	messages := syncCatalog(t, driver, types.NewState(), "orders")

	records := 0
	for _, msg := range messages {
		if msg.Type == types.RecordMessage {
			assert.Equal(t, "orders", msg.Stream)
			records++
		}
	}
	assert.Equal(t, 150, records)
	assert.Equal(t, types.SchemaMessage, messages[0].Type)
	assert.Equal(t, 3, f.hitCount("orders/v2/ordersBulk"))
	assert.Equal(t, "2021-01-01T00:00:00.000+0000", f.queryLog("orders/v2/ordersBulk")[0].Get("startDate"))

	var final *types.State
	for _, msg := range messages {
		if msg.Type == types.StateMessage {
			final = msg.Value
		}
	}
	require.NotNil(t, final)
	bookmark, found := final.GetBookmark("orders", "modifiedDate")
	require.True(t, found)
	assert.Equal(t, "2021-01-02T23:00:00.000+0000", bookmark)
}

func TestFullTableEndToEndIsRepeatable(t *testing.T) {
	f := newFakeToast(t)
	f.json("config/v2/taxRates", `[{"guid":"t1","rate":0.0825,"name":"State"},{"guid":"t2","rate":0.01,"name":"City"}]`)
	driver := newTestToast(t, f, testNow)

	state := types.NewState()
	state.SetBookmark("orders", "modifiedDate", "2021-01-02T00:00:00Z")

	records := func(messages []message) []byte {
		var out []map[string]any
		for _, msg := range messages {
			if msg.Type == types.RecordMessage {
				out = append(out, msg.Record)
			}
		}
		data, err := json.Marshal(out)
		require.NoError(t, err)
		return data
	}

	first := syncCatalog(t, driver, state, "tax_rates")
	second := syncCatalog(t, driver, state, "tax_rates")
	assert.Equal(t, records(first), records(second))
	assert.Contains(t, string(records(first)), `"rate":0.0825`)

	value, _ := state.GetBookmark("orders", "modifiedDate")
	assert.Equal(t, "2021-01-02T00:00:00Z", value)
	_, found := state.GetBookmark("tax_rates", "")
	assert.False(t, found)
}
