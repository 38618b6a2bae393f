// File: internal/logging/logging.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide zerolog configuration with runtime/test profiles and
// environment overrides. Components obtain scoped loggers through For.

package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "HIOLOAD_BRIDGE_LOG_LEVEL"
	EnvLogTimestamp = "HIOLOAD_BRIDGE_LOG_TIMESTAMP"
	EnvLogNoColor   = "HIOLOAD_BRIDGE_LOG_NOCOLOR"
	EnvLogJSON      = "HIOLOAD_BRIDGE_LOG_JSON"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config controls the root logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	JSON      bool
	Output    io.Writer
}

var (
	configureOnce sync.Once
	root          atomic.Pointer[zerolog.Logger]
)

func init() {
	l := zerolog.New(os.Stderr).Level(zerolog.InfoLevel)
	root.Store(&l)
}

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the root logger for profile. Only the first call has an effect.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := Defaults(profile)
		ApplyEnv(&cfg)
		Apply(cfg)
	})
}

// Apply replaces the root logger unconditionally. Loggers already handed out
// by For keep their previous output.
func Apply(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
			PartsExclude: func() []string {
				if cfg.Timestamp {
					return nil
				}
				return []string{zerolog.TimestampFieldName}
			}(),
		}
	}
	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	l := ctx.Logger()
	root.Store(&l)
}

// Logger returns the root logger.
func Logger() zerolog.Logger {
	return *root.Load()
}

// For returns a logger tagged with the component name.
func For(component string) zerolog.Logger {
	return root.Load().With().Str("component", component).Logger()
}

// Defaults returns the profile's configuration before env overrides.
func Defaults(profile Profile) Config {
	cfg := Config{
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

// ApplyEnv overlays the HIOLOAD_BRIDGE_LOG_* variables onto cfg.
func ApplyEnv(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		cfg.JSON = v
	}
}

// ParseLevel maps a level name to a zerolog level. ok is false for unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
