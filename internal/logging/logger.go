package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

type Logger struct {
	// The level at which this logger logs. Any log messages intended for a higher
	// (more verbose) log level are ignored.
	Level

	// Tag used to filter and classify log messages.
	Tag string

	// Shared by all derived loggers.
	out *sink

	// Level used when no directive names Tag.
	fallback Level
}

// sink serializes writes so messages from different goroutines don't
// interleave.
type sink struct {
	sync.Mutex
	w io.Writer
}

// Write to stderr by default.
var DefaultLogger = &Logger{Level: defaultLevel, out: &sink{w: os.Stderr}, fallback: defaultLevel}

// Override the destination for this logger and every logger derived from the
// same root.
func (log *Logger) SetDestination(out io.Writer) {
	log.out.Lock()
	log.out.w = out
	log.out.Unlock()
}

// Derive a new logger with the given tag. Look up the level based on the tag.
func (log *Logger) WithTag(tag string) *Logger {
	return track(&Logger{determineLevel(tag, log.fallback), tag, log.out, log.fallback})
}

// Derive a new logger with the given default level. This can still be overridden at
// runtime.
func (log *Logger) WithDefaultLevel(level Level) *Logger {
	return track(&Logger{determineLevel(log.Tag, level), log.Tag, log.out, level})
}

// Enabled reports whether a message at the given level would be written.
func (log *Logger) Enabled(level Level) bool {
	return level <= log.Level
}

// Wrapper for []byte that implements io.Writer. Simpler and cheaper than
// bytes.Buffer.
type buffer []byte

func (b *buffer) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

// A global buffer pool, shared across all loggers. Initial capacity is 256 to
// accommodate *most* log lines.
var bufPool = sync.Pool{
	New: func() interface{} {
		return make(buffer, 0, 256)
	},
}

// Log a message at the given level. Include the file and line number from
// 'calldepth' steps up the call stack.
func (log *Logger) Log(level Level, calldepth int, format string, a ...interface{}) {
	if level > log.Level {
		return
	}

	buf := bufPool.Get().(buffer)
	defer func() { bufPool.Put(buf[:0]) }()

	_, file, line, ok := runtime.Caller(calldepth + 1)
	if !ok {
		file = "?"
	}

	header := fmt.Sprintf("%s %s[%s:%d] ",
		time.Now().Format(timestampFormat),
		level.paint(fmt.Sprintf("%c/%s", level.letter(), log.Tag)),
		filepath.Base(file), line)
	buf = append(buf, colorize(colorHeader, header)...)

	fmt.Fprintf(&buf, format, a...)

	if n := len(buf); n == 0 || buf[n-1] != '\n' {
		buf = append(buf, '\n')
	}

	log.out.Lock()
	_, err := log.out.w.Write(buf)
	log.out.Unlock()
	if err != nil {
		panic(fmt.Sprintf("Failed to log to %v: %v", log.out.w, err))
	}
}

func (log *Logger) Error(format string, a ...interface{}) {
	log.Log(Error, 1, format, a...)
}

func (log *Logger) Warn(format string, a ...interface{}) {
	log.Log(Warn, 1, format, a...)
}

func (log *Logger) Info(format string, a ...interface{}) {
	log.Log(Info, 1, format, a...)
}

func (log *Logger) Debug(format string, a ...interface{}) {
	log.Log(Debug, 1, format, a...)
}

func (log *Logger) Trace(n int, format string, a ...interface{}) {
	log.Log(Level(n), 1, format, a...)
}
