package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *logrus.Logger

const timestampFormat = "2006-01-02 15:04:05"

// Fields rendered as bracketed tags by CompactFormatter, in this order.
var tagFields = []string{"component", "interface"}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`         // json, text, simple, or compact
	File   string `yaml:"file,omitempty"` // optional rotated log file, in addition to stdout
}

// CompactFormatter writes one line per entry:
// [time][LEVEL][component][interface] message (key=value, ...): error
type CompactFormatter struct {
	ShowTime bool
}

// Format renders a single log entry
func (f *CompactFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	if f.ShowTime {
		b.WriteString("[" + entry.Time.Format("15:04:05") + "]")
	}
	b.WriteString("[" + strings.ToUpper(entry.Level.String()) + "]")

	for _, tag := range tagFields {
		if v, ok := entry.Data[tag]; ok {
			writeTag(b, v)
		}
	}

	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == logrus.ErrorKey || isTag(k) {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%s=%v", k, entry.Data[k])
		}
		b.WriteByte(')')
	}

	if err, ok := entry.Data[logrus.ErrorKey]; ok {
		fmt.Fprintf(b, ": %v", err)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func isTag(key string) bool {
	for _, tag := range tagFields {
		if key == tag {
			return true
		}
	}
	return false
}

func writeTag(b *bytes.Buffer, v interface{}) {
	fmt.Fprintf(b, "[%v]", v)
}

// InitLogger initializes the global logger with the provided configuration
func InitLogger(config LogConfig) {
	Logger = logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
		Logger.Warnf("Invalid log level '%s', defaulting to 'info'", config.Level)
	}
	Logger.SetLevel(level)

	formatter, ok := newFormatter(config.Format)
	if !ok {
		Logger.Warnf("Invalid log format '%s', defaulting to 'text'", config.Format)
	}
	Logger.SetFormatter(formatter)
	Logger.SetOutput(output(config.File))

	Logger.Debugf("Logger initialized with level: %s, format: %s", level.String(), config.Format)
}

// newFormatter maps a format name to a formatter. Unknown names fall back
// to text and report false.
func newFormatter(format string) (logrus.Formatter, bool) {
	switch strings.ToLower(format) {
	case "json":
		return &logrus.JSONFormatter{TimestampFormat: timestampFormat}, true
	case "simple":
		return &CompactFormatter{}, true
	case "compact":
		return &CompactFormatter{ShowTime: true}, true
	case "text", "":
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat}, true
	default:
		return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampFormat}, false
	}
}

// output is stdout, teed into a rotated file when one is configured.
func output(file string) io.Writer {
	if file == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	})
}

// GetLogger returns the global logger, initializing it with defaults on first use.
func GetLogger() *logrus.Logger {
	if Logger == nil {
		InitLogger(LogConfig{Level: "info", Format: "text"})
	}
	return Logger
}

func WithComponent(component string) *logrus.Entry {
	return GetLogger().WithField("component", component)
}

func WithComponentAndInterface(component, iface string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"component": component,
		"interface": iface,
	})
}
