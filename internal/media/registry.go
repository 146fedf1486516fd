package media

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/logging"
)

var log = logging.DefaultLogger.WithTag("media")

// Open a camera based on its "source spec". A source spec is a colon-separated string
// consisting of a source tag and a source path:
//
//	sourceSpec = sourceTag + ":" + sourcePath
//
// The format of the source path is defined by the registered OpenFunc.
func OpenSource(spec string) (Hardware, error) {
	log.Debug("Registered source types: %v", SourceTypes())

	parts := strings.SplitN(spec, ":", 2)
	tag, path := parts[0], ""
	if len(parts) == 2 {
		path = parts[1]
	}

	registryMu.RLock()
	open, found := registry[tag]
	registryMu.RUnlock()
	if !found {
		return nil, errors.Wrapf(errNotFound, "source type '%s' not registered", tag)
	}
	return open(path)
}

// A function used to open a specific source type.
type OpenFunc func(path string) (Hardware, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]OpenFunc{}
)

// Register a source type, identified by its "source tag". Sources of this type will be
// opened with the given function. Registering a tag twice replaces the first.
func RegisterSourceType(tag string, open OpenFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[tag] = open
}

// SourceTypes lists registered source tags in sorted order.
func SourceTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var tags []string
	for t := range registry {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
