package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Extra levels on top of slog's four.
const (
	LevelSuccess = slog.LevelInfo + 2
	LevelFail    = slog.LevelError + 4
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeUnit    LogType = "UNIT"
	TypeDeploy  LogType = "DEPLOY"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeError   LogType = "ERR"
)

// CustomHandler writes one line per record: [name] [time] [LEVEL] [TYPE] message attrs.
type CustomHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	name   string
	color  bool
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

func NewHandler(w io.Writer, name string, level slog.Leveler, color bool) *CustomHandler {
	return &CustomHandler{
		mu:    &sync.Mutex{},
		w:     w,
		name:  name,
		color: color,
		level: level,
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.groups = append(append([]string{}, h.groups...), name)
	return &c
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	levelColor, levelText := levelStyle(r.Level)
	logType := getLogType(&r, h.attrs)

	message := r.Message
	if r.Level >= slog.LevelError {
		if location := getErrorLocation(&r); location != "" {
			message = fmt.Sprintf("%s (%s)", message, location)
		}
		if details := getAttr(&r, "error"); details != "" {
			message = fmt.Sprintf("%s: %s", message, details)
		}
	}
	if name := getAttr(&r, "name"); name != "" {
		if user := getAttr(&r, "user_name"); user != "" {
			message = fmt.Sprintf("%s [%s by %s]", message, name, user)
		} else {
			message = fmt.Sprintf("%s [%s]", message, name)
		}
	}
	if status := getAttr(&r, "status"); status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}

	var attrs strings.Builder
	prefix := strings.Join(h.groups, ".")
	if prefix != "" {
		prefix += "."
	}
	writeAttr := func(a slog.Attr) bool {
		if !isInternalAttr(a.Key) {
			fmt.Fprintf(&attrs, " %s%s=%v", prefix, a.Key, a.Value)
		}
		return true
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(writeAttr)

	timestamp := r.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var line string
	if h.color {
		line = fmt.Sprintf("%s[%s] [%s] [%s%s%s] [%s] %s%s%s\n",
			colorWhite, h.name, timestamp.Format("15:04:05"),
			levelColor, levelText, colorWhite,
			logType, message, attrs.String(), colorReset,
		)
	} else {
		line = fmt.Sprintf("[%s] [%s] [%s] [%s] %s%s\n",
			h.name, timestamp.Format("15:04:05"), levelText, logType, message, attrs.String(),
		)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, line)
	return err
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level >= LevelFail:
		return colorRed, "FAIL"
	case level >= slog.LevelError:
		return colorRed, "ERROR"
	case level >= slog.LevelWarn:
		return colorYellow, "WARN"
	case level >= LevelSuccess:
		return colorCyan, "SUCCESS"
	case level >= slog.LevelInfo:
		return colorGreen, "INFO"
	default:
		return colorPurple, "DEBUG"
	}
}

// LevelName renders the custom levels by name for the text and json handlers.
func LevelName(level slog.Level) string {
	_, name := levelStyle(level)
	return name
}

func shouldSkipLog(r *slog.Record) bool {
	skippedMessages := []string{
		"locking buckets",
		"unlocking buckets",
		"gateway event",
		"cleaning up bucket",
		"binary message received",
		"received gateway message",
		"locking rest bucket",
		"unlocking rest bucket",
		"rate limit response headers",
		"sending heartbeat",
	}

	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}

func getLogType(r *slog.Record, handlerAttrs []slog.Attr) LogType {
	value := getAttr(r, "type")
	if value == "" {
		for _, a := range handlerAttrs {
			if a.Key == "type" {
				value = a.Value.String()
			}
		}
	}
	switch value {
	case "cmd":
		return TypeCommand
	case "unit":
		return TypeUnit
	case "deploy":
		return TypeDeploy
	case "db":
		return TypeDB
	case "error":
		return TypeError
	default:
		return TypeSystem
	}
}

func isInternalAttr(key string) bool {
	switch key {
	case "type", "name", "user_name", "status", "error", "error_location":
		return true
	}
	return false
}

func getAttr(r *slog.Record, key string) string {
	var value string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			value = a.Value.String()
			return false
		}
		return true
	})
	return value
}

func getErrorLocation(r *slog.Record) string {
	if location := getAttr(r, "error_location"); location != "" {
		return location
	}
	if r.PC == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}
