package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const envVar = "LOGLEVEL"

type tagLevel struct {
	tag   string
	level Level
}

var (
	tagLevelsMu sync.RWMutex
	tagLevels   []tagLevel

	// Every logger derived so far, so Configure can adjust them.
	derived []*Logger
)

func init() {
	if err := Configure(os.Getenv(envVar)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s: %s\n", envVar, err)
	}
}

func track(log *Logger) *Logger {
	tagLevelsMu.Lock()
	derived = append(derived, log)
	tagLevelsMu.Unlock()
	return log
}

// parseDirectives parses comma-separated "tag=level" directives. A directive
// without "tag=" sets the default level.
func parseDirectives(directives string) (levels []tagLevel, def *Level, err error) {
	for _, d := range strings.Split(directives, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		v := strings.SplitN(d, "=", 2)
		level, lerr := parseLevel(v[len(v)-1])
		if lerr != nil {
			if err == nil {
				err = errors.Wrapf(lerr, "directive '%s'", d)
			}
			continue
		}
		if len(v) == 1 {
			def = &level
			continue
		}
		levels = append(levels, tagLevel{v[0], level})
	}
	return
}

// CheckDirectives reports whether Configure would accept directives.
func CheckDirectives(directives string) error {
	_, _, err := parseDirectives(directives)
	return err
}

// Configure applies LOGLEVEL-style directives, e.g. "info,surface=debug".
// Valid directives take effect even if others are rejected. Loggers already
// derived are updated too.
func Configure(directives string) error {
	levels, def, err := parseDirectives(directives)

	tagLevelsMu.Lock()
	defer tagLevelsMu.Unlock()

	prev := defaultLevel
	if def != nil {
		defaultLevel = *def
		DefaultLogger.Level = *def
		DefaultLogger.fallback = *def
	}
	tagLevels = append(tagLevels, levels...)

	for _, log := range derived {
		// Loggers with their own default keep it.
		if log.fallback == prev {
			log.fallback = defaultLevel
		}
		log.Level = levelFor(log.Tag, log.fallback)
	}
	return err
}

func determineLevel(tag string, fallback Level) Level {
	tagLevelsMu.RLock()
	defer tagLevelsMu.RUnlock()
	return levelFor(tag, fallback)
}

func levelFor(tag string, fallback Level) Level {
	// Later directives win.
	for i := len(tagLevels) - 1; i >= 0; i-- {
		if tagLevels[i].tag == tag {
			return tagLevels[i].level
		}
	}
	return fallback
}
