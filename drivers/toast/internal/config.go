package driver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/utils"
	"github.com/datazip-inc/tap-toast/utils/typeutils"
	"github.com/hashicorp/go-multierror"
)

var ErrConfiguration = errors.New("invalid configuration")

// OrdersMode selects which orders endpoint generation backs the orders stream
type OrdersMode string

const (
	OrdersBulk   OrdersMode = "bulk"
	OrdersHourly OrdersMode = "hourly"
	OrdersDaily  OrdersMode = "daily"
)

type Config struct {
	// ClientID of the Toast API client
	ClientID string `json:"client_id" validate:"required" description:"Toast API client id"`

	// ClientSecret of the Toast API client
	ClientSecret string `json:"client_secret" validate:"required" description:"Toast API client secret" format:"password"`

	// LocationGUID is sent as the restaurant external id header on every call
	LocationGUID string `json:"location_guid" validate:"required" description:"Restaurant GUID sent as Toast-Restaurant-External-ID"`

	// ManagementGroupGUID is the parent of the restaurants stream
	ManagementGroupGUID string `json:"management_group_guid" validate:"required" description:"Management group whose restaurants are listed"`

	// StartDate is the lower bound for streams without a bookmark
	StartDate string `json:"start_date" validate:"required" description:"ISO-8601 date or datetime, lower bound for incremental streams"`

	// AuthWithLogin selects the machine client login flow, the default.
	// When false the OAuth client credentials flow is used.
	AuthWithLogin *bool `json:"auth_with_login" description:"Use the machine client login flow instead of OAuth client credentials" default:"true"`

	BaseURL               string       `json:"base_url" validate:"omitempty,url" description:"Toast API host" default:"https://ws-api.toasttab.com/"`
	OrdersMode            OrdersMode   `json:"orders_mode" validate:"omitempty,oneof=bulk hourly daily" description:"Orders endpoint: bulk, hourly or daily" default:"bulk"`
	PageSize              int          `json:"page_size" validate:"gte=0" description:"Page size for paged endpoints" default:"100"`
	RequestsPerSecond     float64      `json:"requests_per_second" validate:"gte=0" description:"Client side rate limit, 0 disables it"`
	RequestTimeoutSeconds int          `json:"request_timeout_seconds" validate:"gte=0" description:"Timeout of a single HTTP attempt, 0 disables it"`
	Retry                 *RetryConfig `json:"retry" description:"Backoff policy for failed calls, unbounded by default"`

	startDate time.Time
}

// RetryConfig is the file representation of RetryPolicy
type RetryConfig struct {
	InitialIntervalMS int     `json:"initial_interval_ms" validate:"gte=0"`
	Multiplier        float64 `json:"multiplier" validate:"omitempty,gte=1"`
	MaxIntervalMS     int     `json:"max_interval_ms" validate:"gte=0"`
	MaxAttempts       int     `json:"max_attempts" validate:"gte=0"`
	MaxElapsedSeconds int     `json:"max_elapsed_seconds" validate:"gte=0"`
}

func (c *Config) Validate() error {
	var multErr error
	if err := utils.Validate(c); err != nil {
		multErr = multierror.Append(multErr, err)
	}

	if c.StartDate != "" {
		startDate, err := typeutils.ParseTimestamp(c.StartDate)
		if err != nil {
			multErr = multierror.Append(multErr, fmt.Errorf("start_date: %s", err))
		}
		c.startDate = startDate
	}

	if multErr != nil {
		return fmt.Errorf("%w: %s", ErrConfiguration, multErr)
	}

	// defaults
	if c.AuthWithLogin == nil {
		login := true
		c.AuthWithLogin = &login
	}
	if c.BaseURL == "" {
		c.BaseURL = constants.DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.OrdersMode == "" {
		c.OrdersMode = OrdersBulk
	}
	if c.PageSize == 0 {
		c.PageSize = constants.DefaultPageSize
	}

	return nil
}

func (c *Config) loginFlow() bool {
	return c.AuthWithLogin == nil || *c.AuthWithLogin
}

// RetryPolicy returns the configured backoff, unbounded unless limited
func (c *Config) RetryPolicy() RetryPolicy {
	policy := DefaultRetryPolicy()
	if c.Retry == nil {
		return policy
	}

	if c.Retry.InitialIntervalMS > 0 {
		policy.InitialInterval = time.Duration(c.Retry.InitialIntervalMS) * time.Millisecond
	}
	if c.Retry.Multiplier > 0 {
		policy.Multiplier = c.Retry.Multiplier
	}
	if c.Retry.MaxIntervalMS > 0 {
		policy.MaxInterval = time.Duration(c.Retry.MaxIntervalMS) * time.Millisecond
	}
	policy.MaxAttempts = c.Retry.MaxAttempts
	policy.MaxElapsedTime = time.Duration(c.Retry.MaxElapsedSeconds) * time.Second
	return policy
}

func (c *Config) requestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
