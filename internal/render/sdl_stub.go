//go:build !sdl

package render

import (
	"errors"
	"image"
)

// SDL is unavailable in builds without the sdl tag.
type SDL struct{}

// NewSDL always fails without the sdl build tag.
func NewSDL(width, height int, title string) (*SDL, error) {
	return nil, errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

// Present reports ErrQuit so a misconfigured loop ends.
func (s *SDL) Present(img *image.RGBA, status string) error { return ErrQuit }

// Resized never reports a size.
func (s *SDL) Resized() (int, int, bool) { return 0, 0, false }

// Close is a no-op.
func (s *SDL) Close() error { return nil }

// SupportsSDL reports whether the SDL presenter was compiled in.
func SupportsSDL() bool { return false }
