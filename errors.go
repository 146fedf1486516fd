package camerahal

import (
	"github.com/pkg/errors"

	"github.com/lanikai/camerahal/internal/memory"
	"github.com/lanikai/camerahal/internal/pixfmt"
	"github.com/lanikai/camerahal/internal/surface"
)

var ErrClosed = errors.New("camera device closed")

// Frame-level failures. They are logged and counted, never fatal; match them
// with errors.Cause.
var (
	ErrAcquire           = surface.ErrAcquire
	ErrLock              = surface.ErrLock
	ErrHandoff           = surface.ErrHandoff
	ErrUnsupportedFormat = pixfmt.ErrUnsupportedFormat
	ErrAllocation        = memory.ErrAllocation
)
