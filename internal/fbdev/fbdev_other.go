//go:build !linux

package fbdev

import "github.com/pkg/errors"

func Open(path string) (*Surface, error) {
	return nil, errors.New("framebuffer display not supported on this platform")
}
