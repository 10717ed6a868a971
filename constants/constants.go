package constants

import "errors"

// viper keys shared by the protocol commands, logger and telemetry
const (
	ConfigFolder  = "CONFIG_FOLDER"
	StatePath     = "STATE_PATH"
	MetricsPath   = "METRICS_PATH"
	EncryptionKey = "ENCRYPTION_KEY"
	LogLevel      = "LOG_LEVEL"
	NoSave        = "NO_SAVE"
)

const (
	BookmarksKey    = "bookmarks"
	GUIDField       = "guid"
	DefaultBaseURL  = "https://ws-api.toasttab.com/"
	DefaultPageSize = 100
)

// upstream query parameter layouts
const (
	BusinessDateFormat   = "20060102"
	ToastTimestampFormat = "2006-01-02T15:04:05.000-0700"
)

var (
	ErrStreamNotFound = errors.New("stream not found in registry")
	ErrNotAuthorized  = errors.New("connector holds no credential")
)
