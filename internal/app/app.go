package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/audio"
	"github.com/guidoenr/habitateq/internal/mode"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/render"
	"github.com/guidoenr/habitateq/internal/visualizer"
	"golang.org/x/term"
)

// ErrBusy is returned when the command queue is full.
var ErrBusy = errors.New("command queue full")

var errQuit = errors.New("quit requested")

const commandQueue = 64

// Config configures the application runtime.
type Config struct {
	// Width and Height size the framebuffer in pixels. The terminal grid is
	// sampled from it and follows the window.
	Width  int
	Height int

	TargetFPS     float64
	BufferSize    int
	DeviceName    string
	AudioFile     string
	LoopAudio     bool
	DisableAudio  bool
	NoiseFloor    float64
	ShowStatusBar bool
	UseSDL        bool
	ProfilePath   string

	// ParamsPath is where SaveParams writes. Defaults to a file next to the
	// binary.
	ParamsPath string

	Visualizer visualizer.Config

	// Presenter replaces the terminal or SDL presenter.
	Presenter render.Presenter

	Out io.Writer
	Log *log.Logger
}

// Status is the snapshot published for the control panel.
type Status struct {
	visualizer.Status
	FPS    float64 `json:"fps"`
	Source string  `json:"source"`
}

type commandKind int

const (
	commandTrigger commandKind = iota
	commandQuit
	commandPause
	commandParams
)

type command struct {
	kind    commandKind
	trigger mode.Trigger
	arg     int
	params  params.Parameters
}

// pauser is implemented by sources that can hold playback.
type pauser interface {
	TogglePause()
}

// App ties together audio input, analysis, the visualizer and a presenter.
type App struct {
	cfg       Config
	log       *log.Logger
	out       io.Writer
	state     *visualizer.State
	source    audio.Source
	analyzer  *analyzer.Analyzer
	fake      *fakeGenerator
	presenter render.Presenter
	term      *render.Terminal
	prof      *profiler
	commands  chan command
	last      time.Time
	fps       float64

	mu     sync.Mutex
	status Status
	params params.Parameters
}

// New constructs the application using the provided configuration.
func New(cfg Config) (*App, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 30
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	vcfg := cfg.Visualizer
	vcfg.Width = cfg.Width
	vcfg.Height = cfg.Height
	vcfg.FPS = int(math.Round(cfg.TargetFPS))
	if vcfg.Log == nil {
		vcfg.Log = cfg.Log
	}
	state, err := visualizer.New(vcfg)
	if err != nil {
		return nil, fmt.Errorf("visualizer: %w", err)
	}
	width, height := state.Size()

	app := &App{
		cfg:      cfg,
		log:      cfg.Log,
		out:      cfg.Out,
		state:    state,
		commands: make(chan command, commandQueue),
		params:   state.Params(),
		fps:      cfg.TargetFPS,
	}

	if err := app.openSource(); err != nil {
		return nil, err
	}

	switch {
	case cfg.Presenter != nil:
		app.presenter = cfg.Presenter
	case cfg.UseSDL:
		sdl, err := render.NewSDL(width, height, "habitateq")
		if err != nil {
			app.closeSource()
			return nil, fmt.Errorf("sdl presenter: %w", err)
		}
		app.presenter = sdl
	default:
		cols, rows := app.terminalGrid()
		t, err := render.NewTerminal(cfg.Out, cols, rows, cfg.ShowStatusBar)
		if err != nil {
			app.closeSource()
			return nil, fmt.Errorf("terminal presenter: %w", err)
		}
		app.presenter = t
		app.term = t
	}

	app.prof = newProfiler(cfg.ProfilePath, cfg.Log)
	app.last = time.Now()
	app.publish()
	return app, nil
}

func (a *App) openSource() error {
	switch {
	case a.cfg.DisableAudio:
		a.fake = newFakeGenerator()
		a.log.Println("audio disabled, using synthetic generator")
		return nil
	case a.cfg.AudioFile != "":
		player, err := audio.OpenFile(audio.FileConfig{
			Path:       a.cfg.AudioFile,
			BufferSize: a.cfg.BufferSize,
			Loop:       a.cfg.LoopAudio,
		})
		if err != nil {
			return fmt.Errorf("audio file: %w", err)
		}
		a.source = player
		a.log.Printf("playing \"%s\" @ %.0f Hz", player.Label(), player.SampleRate())
	default:
		capture, err := audio.NewCapture(audio.Config{
			DeviceName: a.cfg.DeviceName,
			BufferSize: a.cfg.BufferSize,
			Channels:   2,
		})
		if err != nil {
			return fmt.Errorf("audio capture: %w", err)
		}
		a.source = capture
		a.log.Printf("audio capture started on \"%s\" @ %.0f Hz", capture.Label(), capture.SampleRate())
	}
	a.analyzer = analyzer.New(analyzer.Config{
		SampleRate: a.source.SampleRate(),
		MaxFFTSize: a.cfg.BufferSize,
	})
	return nil
}

func (a *App) closeSource() error {
	if a.source == nil {
		return nil
	}
	return a.source.Close()
}

// Run starts the render loop until context cancellation or a quit key.
func (a *App) Run(ctx context.Context) error {
	frameDuration := time.Duration(float64(time.Second) / a.cfg.TargetFPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	if a.term != nil {
		enterAltScreen(a.out)
		clearScreen(a.out)
		hideCursor(a.out)
		defer func() {
			showCursor(a.out)
			exitAltScreen(a.out)
		}()
	}

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	a.startInputListener(inputCtx)
	a.ensureDimensions()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := a.step()
			if errors.Is(err, errQuit) || errors.Is(err, render.ErrQuit) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

// Close releases held resources.
func (a *App) Close() error {
	return errors.Join(a.closeSource(), a.presenter.Close(), a.prof.Close())
}

func (a *App) step() error {
	if a.drain() {
		return errQuit
	}
	a.ensureDimensions()

	now := time.Now()
	delta := now.Sub(a.last).Seconds()
	if delta <= 0 {
		delta = 1.0 / a.cfg.TargetFPS
	}
	a.last = now
	a.fps = a.fps*0.9 + 0.1/delta

	a.prof.beginFrame()
	e, playing := a.energies(delta)
	a.prof.markSection("analyze")
	img := a.state.Step(e, playing)
	a.prof.markSection("render")
	err := a.presenter.Present(img, a.statusLine())
	a.prof.markSection("present")
	a.prof.endFrame()

	a.publish()
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// drain applies every queued command and reports whether quit was requested.
func (a *App) drain() bool {
	for {
		select {
		case cmd := <-a.commands:
			if a.handle(cmd) {
				return true
			}
		default:
			return false
		}
	}
}

func (a *App) handle(cmd command) bool {
	switch cmd.kind {
	case commandQuit:
		return true
	case commandTrigger:
		a.state.Apply(cmd.trigger, cmd.arg)
	case commandPause:
		if p, ok := a.source.(pauser); ok {
			p.TogglePause()
		}
	case commandParams:
		if err := a.state.SetParams(cmd.params); err != nil {
			a.log.Printf("parameters rejected: %v", err)
		}
	}
	return false
}

func (a *App) energies(delta float64) (analyzer.Energies, bool) {
	if a.source == nil {
		return a.fake.Next(delta), true
	}
	e := a.analyzer.Analyze(a.source.Samples())
	return analyzer.Gate(e, a.cfg.NoiseFloor), a.source.Playing()
}

func (a *App) sourceLabel() string {
	if a.source == nil {
		return "synthetic"
	}
	return a.source.Label()
}

func (a *App) statusLine() string {
	st := a.state.Status()
	return fmt.Sprintf("habitateq | fps=%4.1f | %s | particles=%s(%d) | bass=%3.0f mid=%3.0f treble=%3.0f | src=%s",
		a.fps, st.Preset, st.Particle, st.Particles,
		st.Energies.Bass, st.Energies.Mid, st.Energies.Treble, a.sourceLabel())
}

func (a *App) publish() {
	st := Status{Status: a.state.Status(), FPS: a.fps, Source: a.sourceLabel()}
	a.mu.Lock()
	a.status = st
	a.mu.Unlock()
}

func (a *App) enqueue(cmd command) error {
	select {
	case a.commands <- cmd:
		return nil
	default:
		return ErrBusy
	}
}

// Status returns the snapshot of the last frame. Safe for concurrent use.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Trigger queues a named trigger for the next frame.
func (a *App) Trigger(name string, arg int) error {
	t, err := mode.ParseTrigger(name)
	if err != nil {
		return err
	}
	return a.enqueue(command{kind: commandTrigger, trigger: t, arg: arg})
}

// Params returns the most recently accepted parameters.
func (a *App) Params() params.Parameters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.params
}

// UpdateParams merges a partial JSON document onto the parameters and queues
// the result for the next frame.
func (a *App) UpdateParams(patch []byte) (params.Parameters, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, err := a.params.Merge(patch)
	if err != nil {
		return a.params, err
	}
	if err := a.enqueue(command{kind: commandParams, params: next}); err != nil {
		return a.params, err
	}
	a.params = next
	return next, nil
}

// SaveParams writes the parameters to the configured path and returns it.
func (a *App) SaveParams() (string, error) {
	path := a.cfg.ParamsPath
	if path == "" {
		path = defaultParamsPath()
	}
	if err := params.Save(path, a.Params()); err != nil {
		return "", err
	}
	return path, nil
}

func defaultParamsPath() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(exe), "habitateq-params.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".habitateq-params.json")
}

func (a *App) terminalFD() int {
	f, ok := a.out.(*os.File)
	if !ok {
		return -1
	}
	return int(f.Fd())
}

// terminalGrid returns the cell grid left for the picture.
func (a *App) terminalGrid() (cols, rows int) {
	cols, rows = 80, 24
	if fd := a.terminalFD(); fd >= 0 {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			cols, rows = w, h
		}
	}
	if a.cfg.ShowStatusBar && rows > 1 {
		rows--
	}
	return cols, rows
}

func (a *App) ensureDimensions() {
	if r, ok := a.presenter.(render.Resizer); ok {
		if w, h, ok := r.Resized(); ok {
			a.state.Resize(w, h)
		}
	}
	if a.term == nil || a.terminalFD() < 0 {
		return
	}
	cols, rows := a.terminalGrid()
	if c, r := a.term.Size(); c == cols && r == rows {
		return
	}
	a.term.Resize(cols, rows)
	clearScreen(a.out)
}

func clearScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[2J")
	moveCursorHome(w)
}

func moveCursorHome(w io.Writer) {
	fmt.Fprint(w, "\x1b[H")
}

func hideCursor(w io.Writer) {
	fmt.Fprint(w, "\x1b[?25l")
}

func showCursor(w io.Writer) {
	fmt.Fprint(w, "\x1b[?25h")
}

func enterAltScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[?1049h")
}

func exitAltScreen(w io.Writer) {
	fmt.Fprint(w, "\x1b[?1049l\x1b[0m")
}
