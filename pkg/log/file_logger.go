package log

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation configures size-based rotation of a protocol log file.
// Rotated files keep the base name with a timestamp inserted before the
// extension, e.g. client-2026-03-02T09-30-00.000.clog.
type Rotation struct {
	// MaxSizeMB is the size at which the file is rotated.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept. Zero keeps all.
	MaxBackups int

	// MaxAgeDays removes rotated files older than this. Zero keeps all.
	MaxAgeDays int

	// Compress gzips rotated files.
	Compress bool
}

// FileLogger appends CBOR protocol events to a file. Each event is written
// with a single Write, so a rotated file always ends on an event boundary.
// It is safe for concurrent use.
type FileLogger struct {
	mu      sync.Mutex
	out     io.WriteCloser
	encoder *cbor.Encoder
	closed  bool
}

// NewFileLogger opens path for appending, creating it with mode 0644 if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return newFileLogger(f), nil
}

// NewRotatingFileLogger appends to path and rotates it according to r.
// The file is opened lazily on the first event.
func NewRotatingFileLogger(path string, r Rotation) *FileLogger {
	return newFileLogger(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    r.MaxSizeMB,
		MaxBackups: r.MaxBackups,
		MaxAge:     r.MaxAgeDays,
		Compress:   r.Compress,
	})
}

func newFileLogger(out io.WriteCloser) *FileLogger {
	return &FileLogger{out: out, encoder: NewEncoder(out)}
}

// Log writes event. Events logged after Close are dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	// Capture must not disrupt the stack.
	_ = l.encoder.Encode(event)
}

// Close closes the file. Further calls return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.out.Close()
}

var _ Logger = (*FileLogger)(nil)
