//go:build !linux || !(amd64 || arm64 || 386 || arm)

package v4l2

import (
	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/media"
)

func Open(cfg Config) (media.Hardware, error) {
	return nil, errors.New("v4l2 capture not supported on this platform")
}
