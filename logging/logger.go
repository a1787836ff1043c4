package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It writes to stderr until InitLogger runs.
var Logger = logrus.New()
var once sync.Once

// CustomFormatter renders one line per entry with the service name and a
// generated event id.
type CustomFormatter struct {
	SystemName string
}

// Format implements logrus.Formatter.
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", entry.Time.Format("2006-01-02"), entry.Time.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	for key, value := range entry.Data {
		b.WriteString(fmt.Sprintf(", %s: %v", key, value))
	}

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Options configures InitLogger.
type Options struct {
	File  string
	Level string
}

// InitLogger points the global logger at stdout plus a rotating log file.
func InitLogger(opts Options) {
	once.Do(func() {
		var out io.Writer = os.Stdout

		if opts.File != "" {
			if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
				Logger.Warnf("Event ID: LOG_DIR_CREATE_FAILED, Description: Failed to create log directory: %v", err)
			} else {
				out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
					Filename:   opts.File,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
					Compress:   true,
				})
			}
		}

		Logger.SetOutput(out)
		Logger.SetFormatter(&CustomFormatter{SystemName: "retailtasks"})
		Logger.SetReportCaller(true)

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		Logger.SetLevel(level)

		Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized, output to: %s", opts.File)
	})
}
