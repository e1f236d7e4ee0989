// Package log provides structured logging for dropzone.
// Entries carry a level, a category and key=value fields. Logging is off
// until Init or InitWithTeaLog is called (--debug flag or DROPZONE_DEBUG).
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a config string onto a Level, defaulting to LevelDebug.
func ParseLevel(s string) Level {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "WARNING" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i)
		}
	}
	return LevelDebug
}

// Category groups related log messages.
type Category string

const (
	CatRegistry  Category = "registry"  // Zone register/unregister
	CatHover     Category = "hover"     // Hover resolution changes
	CatDrop      Category = "drop"      // Drop commits, rejections, assignments
	CatBroadcast Category = "broadcast" // Position-update passes
	CatMeasure   Category = "measure"   // Geometry measurement
	CatConfig    Category = "config"    // Configuration loading/saving
	CatWatcher   Category = "watcher"   // Layout file watcher events
	CatScenario  Category = "scenario"  // Headless scenario runs
	CatUI        Category = "ui"        // Demo board updates
	CatTrace     Category = "trace"     // Tracing provider lifecycle
)

// Logger writes formatted entries to one sink.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	enabled  bool
	minLevel Level
}

var current atomic.Pointer[Logger]

func install(w io.Writer) {
	current.Store(&Logger{out: w, enabled: true, minLevel: LevelDebug})
}

// Init appends to the file at path and installs it as the global sink.
// The returned func closes the file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // debug log path comes from the user
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	install(f)
	return func() { _ = f.Close() }, nil
}

// InitWithTeaLog is Init through tea.LogToFile, which also routes Bubble
// Tea's own logging to path. prefix tags every line.
func InitWithTeaLog(path string, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	install(f)
	return func() { _ = f.Close() }, nil
}

// InitWriter points the global logger at w. Tests use it to capture output.
func InitWriter(w io.Writer) {
	install(w)
}

// Reset drops the global logger. Subsequent calls are no-ops.
func Reset() {
	current.Store(nil)
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current.Load(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel drops entries below level.
func SetMinLevel(level Level) {
	if l := current.Load(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

func Debug(cat Category, msg string, fields ...any) { write(LevelDebug, cat, msg, fields) }
func Info(cat Category, msg string, fields ...any)  { write(LevelInfo, cat, msg, fields) }
func Warn(cat Category, msg string, fields ...any)  { write(LevelWarn, cat, msg, fields) }
func Error(cat Category, msg string, fields ...any) { write(LevelError, cat, msg, fields) }

// ErrorErr logs at error level with err appended as the "error" field.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	text := "<nil>"
	if err != nil {
		text = err.Error()
	}
	write(LevelError, cat, msg, append(fields, "error", text))
}

// format renders one line:
//
//	2025-12-06T10:45:00 [WARN] [drop] drop rejected item=c zone=todo
func format(at time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", at.Format("2006-01-02T15:04:05"), level, cat, msg)
	for len(fields) >= 2 {
		fmt.Fprintf(&b, " %v=%v", fields[0], fields[1])
		fields = fields[2:]
	}
	if len(fields) == 1 {
		fmt.Fprintf(&b, " %v=<missing>", fields[0])
	}
	b.WriteByte('\n')
	return b.String()
}

func write(level Level, cat Category, msg string, fields []any) {
	l := current.Load()
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel || l.out == nil {
		return
	}
	_, _ = io.WriteString(l.out, format(time.Now(), level, cat, msg, fields))
}
