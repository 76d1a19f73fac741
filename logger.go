package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level orders diagnostic messages by severity.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelLabels = [...]struct {
	name  string
	style lipgloss.Style
}{
	LevelTrace: {"TRACE", lipgloss.NewStyle().Foreground(lipgloss.Color("#7D8590"))},
	LevelDebug: {"DEBUG", lipgloss.NewStyle().Foreground(lipgloss.Color("#58A6FF"))},
	LevelInfo:  {"INFO", lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))},
	LevelWarn:  {"WARN", lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922"))},
	LevelError: {"ERROR", lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F85149"))},
}

func (l Level) String() string {
	if l < LevelTrace || l > LevelError {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelLabels[l].name
}

// ParseLevel reads a log.level value. Empty means info.
func ParseLevel(s string) (Level, error) {
	switch s = strings.ToLower(s); s {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for l := LevelTrace; l <= LevelError; l++ {
		if strings.ToLower(levelLabels[l].name) == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
}

// Diagnostics go nowhere until SetLogOutput is called. In hook mode stderr
// carries the block message, so the hook points this at a file.
var sink = struct {
	sync.Mutex
	level   Level
	out     io.Writer
	colored bool
}{level: LevelInfo, out: io.Discard}

func SetLogLevel(level Level) {
	sink.Lock()
	sink.level = level
	sink.Unlock()
}

// SetLogOutput redirects every logger; nil discards. colored renders the
// level label with lipgloss.
func SetLogOutput(w io.Writer, colored bool) {
	if w == nil {
		w = io.Discard
	}
	sink.Lock()
	sink.out, sink.colored = w, colored
	sink.Unlock()
}

// Logger tags diagnostics with the component that wrote them.
type Logger struct {
	component string
}

func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) logf(level Level, format string, args ...any) {
	sink.Lock()
	defer sink.Unlock()
	if level < sink.level {
		return
	}
	label := level.String()
	if sink.colored {
		label = levelLabels[level].style.Render(label)
	}
	fmt.Fprintf(sink.out, "%s [%s] [%s] %s\n",
		time.Now().Format("15:04:05"), label, l.component, fmt.Sprintf(format, args...))
}

func (l *Logger) Trace(format string, args ...any) { l.logf(LevelTrace, format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.logf(LevelError, format, args...) }
