package app

import (
	"bytes"
	"errors"
	"image"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eiannone/keyboard"
	"github.com/guidoenr/habitateq/internal/mode"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/visualizer"
)

type recorder struct {
	frames  int
	size    image.Point
	status  string
	closed  bool
	resized image.Point
}

func (r *recorder) Present(img *image.RGBA, status string) error {
	r.frames++
	r.size = img.Rect.Size()
	r.status = status
	return nil
}

func (r *recorder) Resized() (int, int, bool) {
	if r.resized == (image.Point{}) {
		return 0, 0, false
	}
	size := r.resized
	r.resized = image.Point{}
	return size.X, size.Y, true
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func newTestApp(t *testing.T) (*App, *recorder) {
	t.Helper()
	rec := &recorder{}
	a, err := New(Config{
		Width:        64,
		Height:       48,
		TargetFPS:    30,
		DisableAudio: true,
		ParamsPath:   filepath.Join(t.TempDir(), "params.json"),
		Visualizer:   visualizer.Config{Seed: 3},
		Presenter:    rec,
		Out:          io.Discard,
		Log:          log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, rec
}

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name    string
		char    rune
		key     keyboard.Key
		kind    commandKind
		trigger mode.Trigger
		arg     int
	}{
		{"kaleidoscope", 'k', 0, commandTrigger, mode.ToggleKaleidoscope, 0},
		{"neon upper", 'N', 0, commandTrigger, mode.ToggleNeon, 0},
		{"3d", '3', 0, commandTrigger, mode.Toggle3D, 0},
		{"vertical flow", 'v', 0, commandTrigger, mode.ToggleVerticalFlow, 0},
		{"tunnel", 't', 0, commandTrigger, mode.ToggleTunnel, 0},
		{"particles", 'p', 0, commandTrigger, mode.CycleParticleMode, 0},
		{"physics", 'm', 0, commandTrigger, mode.TogglePhysics, 0},
		{"reset", 'r', 0, commandTrigger, mode.ResetPhysics, 0},
		{"space key", 0, keyboard.KeySpace, commandTrigger, mode.ManualExplode, 0},
		{"plus", '+', 0, commandTrigger, mode.AdjustSegmentCount, 1},
		{"equals", '=', 0, commandTrigger, mode.AdjustSegmentCount, 1},
		{"minus", '-', 0, commandTrigger, mode.AdjustSegmentCount, -1},
		{"up", 0, keyboard.KeyArrowUp, commandTrigger, mode.AdjustActivePathCount, 1},
		{"down", 0, keyboard.KeyArrowDown, commandTrigger, mode.AdjustActivePathCount, -1},
		{"left", 0, keyboard.KeyArrowLeft, commandTrigger, mode.RotateActivePaths, -1},
		{"right", 0, keyboard.KeyArrowRight, commandTrigger, mode.RotateActivePaths, 1},
		{"tab", 0, keyboard.KeyTab, commandTrigger, mode.CycleTouchPreset, 0},
		{"backspace", 0, keyboard.KeyBackspace2, commandTrigger, mode.ResetTouchPreset, 0},
		{"enter", 0, keyboard.KeyEnter, commandPause, 0, 0},
		{"q", 'q', 0, commandQuit, 0, 0},
		{"esc", 0, keyboard.KeyEsc, commandQuit, 0, 0},
		{"ctrl-c", 0, keyboard.KeyCtrlC, commandQuit, 0, 0},
	}
	for _, tc := range tests {
		cmd, ok := keyCommand(tc.char, tc.key)
		if !ok {
			t.Fatalf("%s: no command", tc.name)
		}
		if cmd.kind != tc.kind || cmd.trigger != tc.trigger || cmd.arg != tc.arg {
			t.Fatalf("%s: got %+v", tc.name, cmd)
		}
	}
	if _, ok := keyCommand('z', 0); ok {
		t.Fatalf("unbound key produced a command")
	}
}

func TestFakeGeneratorStaysInRange(t *testing.T) {
	f := newSeededGenerator(1)
	sawLoudBass := false
	for i := 0; i < 2000; i++ {
		e := f.Next(1.0 / 30)
		for _, v := range []float64{e.Bass, e.Mid, e.Treble} {
			if v < 0 || v > 255 {
				t.Fatalf("frame %d energies out of range: %+v", i, e)
			}
		}
		if e.Bass > 200 {
			sawLoudBass = true
		}
	}
	if !sawLoudBass {
		t.Fatalf("generator never produced a bass hit")
	}
}

func TestStepPresentsFramebuffer(t *testing.T) {
	a, rec := newTestApp(t)
	for i := 0; i < 3; i++ {
		if err := a.step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if rec.frames != 3 || rec.size != image.Pt(64, 48) {
		t.Fatalf("frames=%d size=%v", rec.frames, rec.size)
	}
	st := a.Status()
	if st.Frame != 3 || !st.Playing || st.Source != "synthetic" {
		t.Fatalf("status=%+v", st)
	}
	if !strings.Contains(rec.status, "src=synthetic") {
		t.Fatalf("status line=%q", rec.status)
	}
}

func TestPresenterResizeFollowsFramebuffer(t *testing.T) {
	a, rec := newTestApp(t)
	rec.resized = image.Pt(40, 30)
	if err := a.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if rec.size != image.Pt(40, 30) {
		t.Fatalf("presented %v after resize", rec.size)
	}
	if st := a.Status(); st.Width != 40 || st.Height != 30 {
		t.Fatalf("status size=%dx%d", st.Width, st.Height)
	}
}

func TestTriggerAppliesAtFrameBoundary(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.Trigger("toggle-neon", 0); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if a.Status().Mode.Neon {
		t.Fatalf("trigger applied before the frame")
	}
	if err := a.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !a.Status().Mode.Neon {
		t.Fatalf("trigger not applied")
	}
	if err := a.Trigger("warp-drive", 0); !errors.Is(err, mode.ErrUnknownTrigger) {
		t.Fatalf("err=%v want ErrUnknownTrigger", err)
	}
}

func TestQuitCommandStopsStep(t *testing.T) {
	a, rec := newTestApp(t)
	if err := a.enqueue(command{kind: commandQuit}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := a.step(); !errors.Is(err, errQuit) {
		t.Fatalf("err=%v want errQuit", err)
	}
	if rec.frames != 0 {
		t.Fatalf("frame presented after quit")
	}
}

func TestQueueReportsBusy(t *testing.T) {
	a, _ := newTestApp(t)
	for i := 0; i < commandQueue; i++ {
		if err := a.Trigger("toggle-3d", 0); err != nil {
			t.Fatalf("trigger %d: %v", i, err)
		}
	}
	if err := a.Trigger("toggle-3d", 0); !errors.Is(err, ErrBusy) {
		t.Fatalf("err=%v want ErrBusy", err)
	}
}

func TestUpdateParamsAndSave(t *testing.T) {
	a, _ := newTestApp(t)
	p, err := a.UpdateParams([]byte(`{"columns": 16}`))
	if err != nil {
		t.Fatalf("UpdateParams: %v", err)
	}
	if p.Columns != 16 || a.Params().Columns != 16 {
		t.Fatalf("columns=%d", a.Params().Columns)
	}
	if _, err := a.UpdateParams([]byte(`{"columns": 0}`)); err == nil {
		t.Fatalf("invalid patch accepted")
	}
	if a.Params().Columns != 16 {
		t.Fatalf("rejected patch changed parameters")
	}
	if err := a.step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if a.state.Params().Columns != 16 {
		t.Fatalf("visualizer columns=%d", a.state.Params().Columns)
	}

	path, err := a.SaveParams()
	if err != nil {
		t.Fatalf("SaveParams: %v", err)
	}
	loaded, err := params.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Columns != 16 {
		t.Fatalf("saved columns=%d", loaded.Columns)
	}
}

func TestProfilerWritesSections(t *testing.T) {
	var buf bytes.Buffer
	p := newProfilerTo(&buf, nil)
	p.beginFrame()
	p.markSection("analyze")
	p.endFrame()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "timestamp,frame,section,delta_ms" {
		t.Fatalf("csv=%q", buf.String())
	}
	if !strings.Contains(lines[1], ",1,analyze,") || !strings.Contains(lines[2], ",1,frame_total,") {
		t.Fatalf("rows=%q", lines[1:])
	}
	var nilProf *profiler
	nilProf.beginFrame()
	nilProf.markSection("x")
	if err := nilProf.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}
