package driver

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/datazip-inc/tap-toast/utils"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/datazip-inc/tap-toast/utils/typeutils"
	"github.com/tidwall/gjson"
)

// fetchFunc produces the lazy record sequence of one stream. Windows are
// computed when the sequence is first pulled, not when it is built.
type fetchFunc func(ctx context.Context, x *extractor, bookmark time.Time) iter.Seq2[types.Record, error]

// extractor is what every strategy needs from the driver
type extractor struct {
	client *Client
	config *Config
	now    func() time.Time
}

// dayWindowedDetail lists identifiers per business day and detail-fetches each.
// With several date parameters the lists are queried concurrently and
// concatenated in parameter order, duplicates included.
func dayWindowedDetail(listPath, detailPath string, dateParams ...string) fetchFunc {
	return func(ctx context.Context, x *extractor, bookmark time.Time) iter.Seq2[types.Record, error] {
		return func(yield func(types.Record, error) bool) {
			for window := range DailyWindows(bookmark, x.now()) {
				businessDate := typeutils.FormatBusinessDate(window.Start)
				logger.Infof("Hitting %s at date %s", listPath, businessDate)

				items, err := x.listByDates(ctx, listPath, businessDate, dateParams)
				if err != nil {
					yield(nil, err)
					return
				}
				logger.Infof("Returned %d items from %s", len(items), listPath)

				if !x.stitch(ctx, detailPath, items, yield) {
					return
				}
			}
		}
	}
}

// hourWindowedDetail lists identifiers per UTC hour and detail-fetches each
func hourWindowedDetail(listPath, detailPath string) fetchFunc {
	return func(ctx context.Context, x *extractor, bookmark time.Time) iter.Seq2[types.Record, error] {
		return func(yield func(types.Record, error) bool) {
			for window := range HourlyWindows(bookmark, x.now()) {
				items, err := x.client.Get(ctx, listPath, url.Values{
					"startDate": {window.Start.Format(constants.ToastTimestampFormat)},
					"endDate":   {window.End.Format(constants.ToastTimestampFormat)},
				})
				if err != nil {
					yield(nil, err)
					return
				}
				if !x.stitch(ctx, detailPath, items, yield) {
					return
				}
			}
		}
	}
}

// pagedBulk walks pages from 1 until a page comes back empty. Pages hold full
// documents, nothing is detail-fetched.
func pagedBulk(path string) fetchFunc {
	return func(ctx context.Context, x *extractor, bookmark time.Time) iter.Seq2[types.Record, error] {
		return func(yield func(types.Record, error) bool) {
			startDate := bookmark.UTC().Format(constants.ToastTimestampFormat)
			endDate := x.now().UTC().Format(constants.ToastTimestampFormat)

			for page := 1; ; page++ {
				items, err := x.client.Get(ctx, path, url.Values{
					"startDate": {startDate},
					"endDate":   {endDate},
					"page":      {strconv.Itoa(page)},
					"pageSize":  {strconv.Itoa(x.config.PageSize)},
				})
				if err != nil {
					yield(nil, err)
					return
				}
				if len(items) == 0 {
					logger.Debugf("%s: page %d is empty, done", path, page)
					return
				}
				if !yieldRecords(items, yield) {
					return
				}
			}
		}
	}
}

// flat yields every item of a single listing. Paged listings are walked until
// a page comes back empty or short.
func flat(path string, paged bool) fetchFunc {
	return func(ctx context.Context, x *extractor, _ time.Time) iter.Seq2[types.Record, error] {
		return func(yield func(types.Record, error) bool) {
			if !paged {
				items, err := x.client.Get(ctx, path, nil)
				if err != nil {
					yield(nil, err)
					return
				}
				yieldRecords(items, yield)
				return
			}

			for page := 1; ; page++ {
				items, err := x.client.Get(ctx, path, url.Values{
					"page":     {strconv.Itoa(page)},
					"pageSize": {strconv.Itoa(x.config.PageSize)},
				})
				if err != nil {
					yield(nil, err)
					return
				}
				if !yieldRecords(items, yield) || len(items) < x.config.PageSize {
					return
				}
			}
		}
	}
}

// dayWindowedFlat yields the items of a listing queried per business day
func dayWindowedFlat(path string) fetchFunc {
	return func(ctx context.Context, x *extractor, bookmark time.Time) iter.Seq2[types.Record, error] {
		return func(yield func(types.Record, error) bool) {
			for window := range DailyWindows(bookmark, x.now()) {
				items, err := x.client.Get(ctx, path, url.Values{
					"businessDate": {typeutils.FormatBusinessDate(window.Start)},
				})
				if err != nil {
					yield(nil, err)
					return
				}
				if !yieldRecords(items, yield) {
					return
				}
			}
		}
	}
}

// restaurants lists the management group children and detail-fetches each
func restaurants(ctx context.Context, x *extractor, _ time.Time) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		listPath := fmt.Sprintf("restaurants/v1/groups/%s/restaurants", url.PathEscape(x.config.ManagementGroupGUID))
		items, err := x.client.Get(ctx, listPath, nil)
		if err != nil {
			yield(nil, err)
			return
		}
		x.stitch(ctx, "restaurants/v1/restaurants", items, yield)
	}
}

// orders picks the endpoint generation configured by orders_mode
func orders(ctx context.Context, x *extractor, bookmark time.Time) iter.Seq2[types.Record, error] {
	switch x.config.OrdersMode {
	case OrdersDaily:
		return dayWindowedDetail("orders/v2/orders", "orders/v2/orders", "businessDate")(ctx, x, bookmark)
	case OrdersHourly:
		return hourWindowedDetail("orders/v2/orders", "orders/v2/orders")(ctx, x, bookmark)
	default:
		return pagedBulk("orders/v2/ordersBulk")(ctx, x, bookmark)
	}
}

func (x *extractor) listByDates(ctx context.Context, path, businessDate string, dateParams []string) ([]gjson.Result, error) {
	if len(dateParams) == 1 {
		return x.client.Get(ctx, path, url.Values{dateParams[0]: {businessDate}})
	}

	lists := make([][]gjson.Result, len(dateParams))
	queries := make([]func(ctx context.Context) error, 0, len(dateParams))
	for idx, param := range dateParams {
		queries = append(queries, func(ctx context.Context) error {
			items, err := x.client.Get(ctx, path, url.Values{param: {businessDate}})
			if err != nil {
				return fmt.Errorf("failed to list %s by %s: %w", path, param, err)
			}
			lists[idx] = items
			return nil
		})
	}
	if err := utils.ErrExec(ctx, queries...); err != nil {
		return nil, err
	}

	return slices.Concat(lists...), nil
}

// stitch detail-fetches every listed identifier. It reports false once the
// consumer stopped or an error was handed over.
func (x *extractor) stitch(ctx context.Context, detailPath string, items []gjson.Result, yield func(types.Record, error) bool) bool {
	for _, item := range items {
		guid := identifier(item)
		if guid == "" {
			logger.Warnf("skipping %s item without an identifier: %s", detailPath, item.Raw)
			continue
		}

		details, err := x.client.Get(ctx, detailPath+"/"+url.PathEscape(guid), nil)
		if err != nil {
			yield(nil, err)
			return false
		}
		if !yieldRecords(details, yield) {
			return false
		}
	}
	return true
}

func yieldRecords(items []gjson.Result, yield func(types.Record, error) bool) bool {
	for _, item := range items {
		record, err := decodeRecord(item)
		if err != nil {
			yield(nil, err)
			return false
		}
		if !yield(record, nil) {
			return false
		}
	}
	return true
}
