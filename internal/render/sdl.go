//go:build sdl

package render

import (
	"fmt"
	"image"

	"github.com/veandco/go-sdl2/sdl"
)

// SDL presents frames in a window through a streaming texture.
type SDL struct {
	window      *sdl.Window
	renderer    *sdl.Renderer
	texture     *sdl.Texture
	width       int
	height      int
	windowTitle string
	// resized holds a window size not yet reported by Resized.
	resized     image.Point
}

// NewSDL opens a window of the framebuffer size.
func NewSDL(width, height int, title string) (*SDL, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", width, height)
	}
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	s := &SDL{windowTitle: title}
	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("sdl window: %w", err)
	}
	s.window = window
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("sdl renderer: %w", err)
	}
	s.renderer = renderer
	if err := s.ensureTexture(width, height); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SDL) ensureTexture(width, height int) error {
	if s.texture != nil && s.width == width && s.height == height {
		return nil
	}
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	_ = s.renderer.SetLogicalSize(int32(width), int32(height))
	tex, err := s.renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		int32(width), int32(height),
	)
	if err != nil {
		return fmt.Errorf("sdl texture: %w", err)
	}
	s.texture = tex
	s.width = width
	s.height = height
	return nil
}

// Present uploads the framebuffer and drains window events. Closing the
// window yields ErrQuit.
func (s *SDL) Present(img *image.RGBA, status string) error {
	b := img.Bounds()
	if err := s.ensureTexture(b.Dx(), b.Dy()); err != nil {
		return err
	}
	if status != "" && status != s.windowTitle {
		s.window.SetTitle(status)
		s.windowTitle = status
	}
	if err := s.texture.Update(nil, img.Pix, img.Stride); err != nil {
		return err
	}
	if err := s.renderer.Clear(); err != nil {
		return err
	}
	if err := s.renderer.Copy(s.texture, nil, nil); err != nil {
		return err
	}
	s.renderer.Present()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return ErrQuit
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				s.resized = image.Pt(int(e.Data1), int(e.Data2))
			}
		}
	}
	return nil
}

// Resized reports the latest window size once after the window changed.
func (s *SDL) Resized() (int, int, bool) {
	if s.resized == (image.Point{}) {
		return 0, 0, false
	}
	size := s.resized
	s.resized = image.Point{}
	return size.X, size.Y, true
}

// Close destroys the window and its resources.
func (s *SDL) Close() error {
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	return nil
}

// SupportsSDL reports whether the SDL presenter was compiled in.
func SupportsSDL() bool { return true }
