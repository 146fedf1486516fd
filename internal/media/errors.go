package media

import "github.com/pkg/errors"

var (
	errNotFound = errors.New("not found")
	errReleased = errors.New("camera released")
)
