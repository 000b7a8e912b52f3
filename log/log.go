// Package log provides a leveled, structured logger for the whole module,
// backed by zerolog. It must be initialized once with Init; the package-level
// functions are then safe for concurrent use.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// Log levels accepted by Init.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const logTestWriterName = "testwriter"

var (
	log   zerolog.Logger
	level string

	// logTestWriter is the sink used when Init is called with
	// logTestWriterName as output; used by tests and benchmarks.
	logTestWriter io.Writer = io.Discard

	// panicOnInvalidChars triggers a panic when a log line carries invalid
	// UTF-8, to catch unformatted binary data early. Only meant for tests.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

// checkInvalidChars panics when msg carries invalid UTF-8, to catch
// unformatted binary data early. Enabled only via panicOnInvalidChars.
func checkInvalidChars(msg string) {
	if panicOnInvalidChars && !utf8.ValidString(msg) {
		panic(fmt.Sprintf("log message with invalid chars: %q", msg))
	}
}

// Init initializes the logger with the given level and output. The output can
// be "stdout", "stderr" or a file path. If errorOutput is not nil, error-level
// lines are duplicated to it.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot open log output %q: %v", output, err))
		}
		out = f
	}
	out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	if errorOutput != nil {
		out = zerolog.MultiLevelWriter(out, errorLevelWriter{errorOutput})
	}

	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		panic(fmt.Sprintf("invalid log level %q: %v", logLevel, err))
	}
	level = logLevel
	log = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// errorLevelWriter forwards only error-level (and above) lines.
type errorLevelWriter struct{ out io.Writer }

func (w errorLevelWriter) Write(p []byte) (int, error) { return len(p), nil }

func (w errorLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.ErrorLevel {
		return len(p), nil
	}
	return w.out.Write(p)
}

// Level returns the level the logger was initialized with.
func Level() string { return level }

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger { return &log }

func Debug(args ...any) { send(log.Debug(), fmt.Sprint(args...)) }
func Info(args ...any)  { send(log.Info(), fmt.Sprint(args...)) }
func Warn(args ...any)  { send(log.Warn(), fmt.Sprint(args...)) }
func Error(args ...any) { send(log.Error(), fmt.Sprint(args...)) }

func Debugf(format string, args ...any) { send(log.Debug(), fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { send(log.Info(), fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { send(log.Warn(), fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { send(log.Error(), fmt.Sprintf(format, args...)) }

func Debugw(msg string, keyvalues ...any) { send(withFields(log.Debug(), keyvalues), msg) }
func Infow(msg string, keyvalues ...any)  { send(withFields(log.Info(), keyvalues), msg) }
func Warnw(msg string, keyvalues ...any)  { send(withFields(log.Warn(), keyvalues), msg) }
func Errorw(err error, msg string)        { send(log.Error().Err(err), msg) }

func send(ev *zerolog.Event, msg string) {
	checkInvalidChars(msg)
	ev.Msg(msg)
}

func withFields(ev *zerolog.Event, keyvalues []any) *zerolog.Event {
	for i := 0; i+1 < len(keyvalues); i += 2 {
		key, ok := keyvalues[i].(string)
		if !ok {
			key = strings.TrimSpace(fmt.Sprint(keyvalues[i]))
		}
		switch v := keyvalues[i+1].(type) {
		case string:
			ev = ev.Str(key, v)
		case []byte:
			ev = ev.Str(key, fmt.Sprintf("%x", v))
		case int:
			ev = ev.Int(key, v)
		case int64:
			ev = ev.Int64(key, v)
		case uint64:
			ev = ev.Uint64(key, v)
		case bool:
			ev = ev.Bool(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		case time.Time:
			ev = ev.Time(key, v)
		case error:
			ev = ev.AnErr(key, v)
		case fmt.Stringer:
			ev = ev.Str(key, v.String())
		default:
			ev = ev.Interface(key, v)
		}
	}
	return ev
}
