package monitoring

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// UseRotatingFile sends Logf output to stderr and to a size-rotated file at
// path. The returned closer flushes and closes the file; callers should
// defer it.
func UseRotatingFile(path string, maxSizeMB int) io.Closer {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
		LocalTime:  true,
	}
	l := log.New(io.MultiWriter(os.Stderr, lj), "", log.LstdFlags)
	SetLogger(l.Printf)
	return lj
}
