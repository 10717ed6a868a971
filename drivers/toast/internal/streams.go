package driver

import (
	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/iancoleman/strcase"
)

type streamEntry struct {
	stream *types.Stream
	fetch  fetchFunc
}

func incremental(name, replicationKey string, fetch fetchFunc) streamEntry {
	return streamEntry{
		stream: &types.Stream{
			Name:              name,
			ReplicationMethod: types.Incremental,
			ReplicationKey:    replicationKey,
			KeyProperties:     []string{constants.GUIDField},
		},
		fetch: fetch,
	}
}

func fullTable(name string, fetch fetchFunc) streamEntry {
	return streamEntry{
		stream: &types.Stream{
			Name:              name,
			ReplicationMethod: types.FullTable,
			KeyProperties:     []string{constants.GUIDField},
		},
		fetch: fetch,
	}
}

// configEntity is a restaurant configuration listing, config/v2/<camelName>
func configEntity(name string) streamEntry {
	return fullTable(name, flat(configPath(name), false))
}

// pagedConfigEntity is a configuration listing large enough to be paged
func pagedConfigEntity(name string) streamEntry {
	return fullTable(name, flat(configPath(name), true))
}

// the API spells the premodifier entities with a capital M
var configPathOverrides = map[string]string{
	"premodifier_groups": "preModifierGroups",
	"premodifiers":       "preModifiers",
}

func configPath(name string) string {
	if entity, found := configPathOverrides[name]; found {
		return "config/v2/" + entity
	}
	return "config/v2/" + strcase.ToLowerCamel(name)
}

// registry lists every stream in discovery order
func registry() []streamEntry {
	return []streamEntry{
		incremental("cash_management_entries", "date", dayWindowedFlat("cashmgmt/v1/entries")),
		incremental("cash_management_deposits", "date", dayWindowedFlat("cashmgmt/v1/deposits")),
		fullTable("employees", flat("labor/v1/employees", false)),
		incremental("orders", "modifiedDate", orders),
		incremental("payments", "paidDate", dayWindowedDetail("payments/v1/payments", "payments/v1/payments",
			"paidBusinessDate", "refundBusinessDate", "voidBusinessDate")),
		configEntity("alternate_payment_types"),
		configEntity("break_types"),
		configEntity("cash_drawers"),
		configEntity("dining_options"),
		configEntity("discounts"),
		configEntity("menu_groups"),
		pagedConfigEntity("menu_items"),
		pagedConfigEntity("menu_option_groups"),
		configEntity("menus"),
		configEntity("no_sale_reasons"),
		configEntity("payout_reasons"),
		configEntity("premodifier_groups"),
		pagedConfigEntity("premodifiers"),
		configEntity("price_groups"),
		configEntity("printers"),
		configEntity("restaurant_services"),
		configEntity("revenue_centers"),
		configEntity("sales_categories"),
		configEntity("service_areas"),
		configEntity("tables"),
		configEntity("tax_rates"),
		configEntity("tip_withholding"),
		configEntity("void_reasons"),
		fullTable("restaurants", restaurants),
	}
}
