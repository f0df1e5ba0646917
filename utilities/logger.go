package utilities

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"fablefeed-backend/internal/config"
)

var (
	infoLog  *log.Logger
	warnLog  *log.Logger
	errorLog *log.Logger
	logMutex sync.Mutex
)

// SetupLogging wires the leveled loggers to stdout/stderr plus rotating files
// under the configured log directory. Safe to skip in tests; the Log helpers
// fall back to the standard logger until called.
func SetupLogging(cfg config.LoggingConfig) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		log.Fatalf("failed to create log directory: %v", err)
	}

	infoWriter := io.MultiWriter(os.Stdout, rotatingFile(cfg, "info.log"))
	warnWriter := io.MultiWriter(os.Stdout, rotatingFile(cfg, "warn.log"))
	errorWriter := io.MultiWriter(os.Stderr, rotatingFile(cfg, "error.log"))

	infoLog = log.New(infoWriter, "INFO: ", log.Ldate|log.Ltime)
	warnLog = log.New(warnWriter, "WARNING: ", log.Ldate|log.Ltime)
	errorLog = log.New(errorWriter, "ERROR: ", log.Ldate|log.Ltime)

	// Override Go's default log
	log.SetOutput(infoWriter)
}

func rotatingFile(cfg config.LoggingConfig, name string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, name),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}

func getCallerInfo() string {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}
	return runtime.FuncForPC(pc).Name()
}

func logAt(level string, format string, v ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()

	message := fmt.Sprintf(format, v...)
	entry := fmt.Sprintf("[%s] %s", getCallerInfo(), message)

	switch {
	case level == "WARNING" && warnLog != nil:
		warnLog.Println(entry)
	case level == "ERROR" && errorLog != nil:
		errorLog.Println(entry)
	case infoLog != nil:
		infoLog.Println(entry)
	default:
		log.Printf("%s: %s", level, entry)
	}
}

func Info(format string, v ...interface{}) {
	logAt("INFO", format, v...)
}

func Warn(format string, v ...interface{}) {
	logAt("WARNING", format, v...)
}

func Error(format string, v ...interface{}) {
	logAt("ERROR", format, v...)
}
