package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/cenkalti/backoff/v4"
	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/telemetry"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/datazip-inc/tap-toast/utils/logger"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const restaurantHeader = "Toast-Restaurant-External-ID"

// Client is the retrying transport in front of the Toast API. Every attempt
// carries a valid bearer credential and the restaurant header.
type Client struct {
	baseURL      string
	locationGUID string
	auth         *Authenticator
	httpClient   *http.Client
	retry        RetryPolicy
	timeout      time.Duration
	limiter      *rate.Limiter
}

func NewClient(config *Config, httpClient *http.Client, auth *Authenticator) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), max(1, int(config.RequestsPerSecond)))
	}

	return &Client{
		baseURL:      config.BaseURL,
		locationGUID: config.LocationGUID,
		auth:         auth,
		httpClient:   httpClient,
		retry:        config.RetryPolicy(),
		timeout:      config.requestTimeout(),
		limiter:      limiter,
	}
}

// Get returns the response as a list: arrays are split into their elements,
// a single document becomes a one element list and a body that is not JSON
// becomes an empty list.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]gjson.Result, error) {
	var body bytes.Buffer
	err := c.do(ctx, http.MethodGet, path, &body, func(builder *requests.Builder) *requests.Builder {
		for key, values := range params {
			builder = builder.Param(key, values...)
		}
		return builder
	})
	if err != nil {
		return nil, err
	}

	logger.Debugf("GET request successful at %s", path)
	return normalize(path, body.Bytes()), nil
}

// Post sends body as JSON and returns the response document. A body that is
// not JSON yields an empty result.
func (c *Client) Post(ctx context.Context, path string, payload any) (gjson.Result, error) {
	var body bytes.Buffer
	err := c.do(ctx, http.MethodPost, path, &body, func(builder *requests.Builder) *requests.Builder {
		if payload == nil {
			return builder
		}
		return builder.BodyJSON(payload)
	})
	if err != nil {
		return gjson.Result{}, err
	}

	logger.Debugf("POST request successful at %s", path)
	if !gjson.ValidBytes(body.Bytes()) {
		return gjson.Result{}, nil
	}
	return gjson.ParseBytes(body.Bytes()), nil
}

// Authorize obtains the credential up front, retrying network failures with
// the same policy as data calls.
func (c *Client) Authorize(ctx context.Context) error {
	operation := func() error {
		_, err := c.auth.EnsureToken(ctx)
		if errors.Is(err, ErrAuthentication) || (err != nil && ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		telemetry.TrackRetry()
		logger.Warnf("authorization failed, retrying in %s: %s", wait.Round(time.Millisecond), err)
	}
	return backoff.RetryNotify(operation, c.retry.NewBackOff(ctx), notify)
}

func (c *Client) do(ctx context.Context, method, path string, out *bytes.Buffer, build func(*requests.Builder) *requests.Builder) error {
	operation := func() error {
		out.Reset()
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		token, err := c.auth.EnsureToken(ctx)
		if err != nil {
			if errors.Is(err, ErrAuthentication) {
				return backoff.Permanent(err)
			}
			return err
		}

		attemptCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		builder := requests.URL(c.baseURL).
			Path(path).
			Method(method).
			Bearer(token).
			Header(restaurantHeader, c.locationGUID).
			ContentType("application/json").
			Client(c.httpClient).
			ToBytesBuffer(out)
		err = build(builder).Fetch(attemptCtx)
		telemetry.TrackRequest(method, err)

		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case requests.HasStatusErr(err, http.StatusUnauthorized):
			c.auth.Invalidate()
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		telemetry.TrackRetry()
		logger.Warnf("%s %s failed, retrying in %s: %s", method, path, wait.Round(time.Millisecond), err)
	}

	if err := backoff.RetryNotify(operation, c.retry.NewBackOff(ctx), notify); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

func normalize(path string, body []byte) []gjson.Result {
	if !gjson.ValidBytes(body) {
		logger.Debugf("non JSON response from %s treated as empty", path)
		return []gjson.Result{}
	}

	result := gjson.ParseBytes(body)
	switch {
	case result.IsArray():
		return result.Array()
	case result.Type == gjson.Null:
		return []gjson.Result{}
	default:
		return []gjson.Result{result}
	}
}

// decodeRecord keeps numbers exact so re-emitting a record is lossless
func decodeRecord(result gjson.Result) (types.Record, error) {
	if !result.IsObject() {
		return nil, fmt.Errorf("expected an object, got %s", result.Type)
	}

	record := types.Record{}
	decoder := json.NewDecoder(bytes.NewReader([]byte(result.Raw)))
	decoder.UseNumber()
	if err := decoder.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %s", err)
	}
	return record, nil
}

// identifier accepts list items that are bare GUIDs or objects carrying one
func identifier(result gjson.Result) string {
	switch {
	case result.Type == gjson.String:
		return result.String()
	case result.IsObject():
		if guid := result.Get(constants.GUIDField); guid.Exists() {
			return guid.String()
		}
		return result.Get("restaurantGuid").String()
	}
	return ""
}
