package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datazip-inc/tap-toast/constants"
	"github.com/datazip-inc/tap-toast/types"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger zerolog.Logger

// Init rebuilds the logger from viper settings. Console output goes to
// stderr since stdout carries protocol messages.
func Init() {
	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}}
	if folder := viper.GetString(constants.ConfigFolder); folder != "" && !viper.GetBool(constants.NoSave) {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(folder, "logs", "sync.log"),
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level()).
		With().Timestamp().Logger()
}

func level() zerolog.Level {
	configured := strings.TrimSpace(viper.GetString(constants.LogLevel))
	if configured == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(configured))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetRunID tags every following line with the sync run id.
func SetRunID(id string) {
	logger = logger.With().Str("run_id", id).Logger()
}

func Info(v ...any) {
	logger.Info().Msg(fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	logger.Info().Msgf(format, v...)
}

func Debug(v ...any) {
	logger.Debug().Msg(fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	logger.Debug().Msgf(format, v...)
}

func Warn(v ...any) {
	logger.Warn().Msg(fmt.Sprint(v...))
}

func Warnf(format string, v ...any) {
	logger.Warn().Msgf(format, v...)
}

func Error(v ...any) {
	logger.Error().Msg(fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	logger.Error().Msgf(format, v...)
}

func Fatal(v ...any) {
	logger.Fatal().Msg(fmt.Sprint(v...))
}

func Fatalf(format string, v ...any) {
	logger.Fatal().Msgf(format, v...)
}

// LogState writes the state document to the configured state path so the
// next invocation can resume from it.
func LogState(state *types.State) {
	if viper.GetBool(constants.NoSave) {
		return
	}
	path := viper.GetString(constants.StatePath)
	if path == "" {
		return
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		Errorf("failed to marshal state: %s", err)
		return
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		Errorf("failed to write state file %s: %s", path, err)
	}
}

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}
