package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

func TestRingKeepsNewestSamplesInOrder(t *testing.T) {
	r := newRing(4)
	r.write([]float32{1, 2, 3})
	r.write([]float32{4, 5})
	got := r.snapshot()
	want := []float32{2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot=%v want %v", got, want)
		}
	}
	r.write([]float32{6, 7, 8, 9, 10})
	got = r.snapshot()
	want = []float32{7, 8, 9, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("overflow snapshot=%v want %v", got, want)
		}
	}
}

func TestRingLoudness(t *testing.T) {
	r := newRing(8)
	if r.loud() {
		t.Fatalf("empty ring is loud")
	}
	r.write([]float32{0, -0.5, 0})
	if !r.loud() {
		t.Fatalf("signal not detected")
	}
	r.write([]float32{0, 0})
	if r.loud() {
		t.Fatalf("silence still loud")
	}
}

func TestDownmix(t *testing.T) {
	got := downmix(nil, []float32{1, 3, -2, 2, 5, 5}, 2)
	want := []float32{2, 0, 5}
	if len(got) != len(want) {
		t.Fatalf("downmix=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("downmix=%v want %v", got, want)
		}
	}
}

func writeSine(t *testing.T, freq float64, seconds float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	format := beep.Format{SampleRate: 22050, NumChannels: 1, Precision: 2}
	pos := 0
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := 0.5 * math.Sin(2*math.Pi*freq*float64(pos)/float64(format.SampleRate))
			samples[i] = [2]float64{v, v}
			pos++
		}
		return len(samples), true
	})
	if err := wav.Encode(f, beep.Take(format.SampleRate.N(time.Duration(seconds*float64(time.Second))), tone), format); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestTapCopiesPlayedSamples(t *testing.T) {
	stream, format, err := decodeFile(writeSine(t, 220, 0.5))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer stream.Close()
	if format.SampleRate != 22050 {
		t.Fatalf("sample rate=%d", format.SampleRate)
	}

	r := newRing(1024)
	tp := &tap{s: stream, ring: r}
	buf := make([][2]float64, 2048)
	n, ok := tp.Stream(buf)
	if !ok || n != len(buf) {
		t.Fatalf("stream n=%d ok=%v", n, ok)
	}
	if !r.loud() {
		t.Fatalf("tap did not record signal")
	}
	got := r.snapshot()
	last := float32((buf[n-1][0] + buf[n-1][1]) / 2)
	if got[len(got)-1] != last {
		t.Fatalf("newest sample=%f want %f", got[len(got)-1], last)
	}
}

func TestDecodeRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := decodeFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err=%v want ErrUnsupportedFormat", err)
	}
	if _, _, err := decodeFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestSilentPlayerEndsAndReportsStopped(t *testing.T) {
	p, err := OpenFile(FileConfig{Path: writeSine(t, 440, 0.05), BufferSize: 512, Silent: true})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	<-p.done
	if p.Playing() {
		t.Fatalf("player still playing after the file ended")
	}
	if p.Label() != "tone.wav" || p.SampleRate() != 22050 {
		t.Fatalf("label=%q rate=%f", p.Label(), p.SampleRate())
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
