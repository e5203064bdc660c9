// Package debug holds the logging setup of qaserve and its opt-in debug
// categories.
//
// Categories pick the subsystems that log debug output (QASERVE_DEBUG or
// logging.debug, comma separated), the level picks the verbosity
// (QASERVE_LOG_LEVEL or logging.level):
//
//	debug.Log("backend", "request", "url", url)
//	if debug.Enabled("backend") { /* expensive formatting */ }
//
// Categories: backend, transport, cache, auth, mcp, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// LevelTrace logs full question and context payloads.
const LevelTrace = slog.LevelDebug - 4

// enabled is only written by Init, before any request is served.
var enabled = categorySet(os.Getenv("QASERVE_DEBUG"))

// Init installs the default slog logger for the given level and format and
// selects the debug categories. QASERVE_DEBUG and QASERVE_LOG_LEVEL win over
// the configured values.
func Init(cats, level, format string) {
	enabled = categorySet(envOr("QASERVE_DEBUG", cats))
	lvl := ParseLevel(envOr("QASERVE_LOG_LEVEL", level))
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, lvl)))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewHandler returns a JSON handler for format "json" and a text handler
// otherwise.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Enabled reports whether category, or "all", was selected.
func Enabled(category string) bool {
	return enabled["all"] || enabled[category]
}

// Log writes a debug record tagged with category if it is enabled.
func Log(category, msg string, args ...any) {
	logAt(slog.LevelDebug, category, msg, args)
}

// Trace is Log at LevelTrace.
func Trace(category, msg string, args ...any) {
	logAt(LevelTrace, category, msg, args)
}

func logAt(level slog.Level, category, msg string, args []any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), level, msg, append([]any{"debug", category}, args...)...)
}

// ParseLevel maps a level name to a slog.Level. Unknown or empty names mean
// INFO.
func ParseLevel(s string) slog.Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "TRACE":
		return LevelTrace
	case "WARNING":
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Truncate cuts s after maxRunes runes and marks the cut with "...".
func Truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

func categorySet(s string) map[string]bool {
	set := make(map[string]bool)
	for cat := range strings.SplitSeq(s, ",") {
		if cat = strings.ToLower(strings.TrimSpace(cat)); cat != "" {
			set[cat] = true
		}
	}
	return set
}
