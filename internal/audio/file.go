package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// ErrUnsupportedFormat is returned for files that are neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// pumpInterval paces silent playback.
const pumpInterval = 20 * time.Millisecond

// FileConfig controls how an audio file is played.
type FileConfig struct {
	Path       string
	BufferSize int
	Loop       bool
	// Silent decodes in real time without opening the speaker.
	Silent bool
}

// FilePlayer plays a decoded file and taps the mono mix for analysis.
type FilePlayer struct {
	label  string
	format beep.Format
	stream beep.StreamSeekCloser
	ctrl   *beep.Ctrl
	ring   *ring
	silent bool

	mu      sync.Mutex
	playing atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// OpenFile decodes path and starts playback.
func OpenFile(cfg FileConfig) (*FilePlayer, error) {
	stream, format, err := decodeFile(cfg.Path)
	if err != nil {
		return nil, err
	}

	p := &FilePlayer{
		label:  filepath.Base(cfg.Path),
		format: format,
		stream: stream,
		ring:   newRing(cfg.BufferSize),
		silent: cfg.Silent,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	var src beep.Streamer = stream
	if cfg.Loop {
		src = beep.Loop(-1, stream)
	}
	p.ctrl = &beep.Ctrl{Streamer: beep.Seq(&tap{s: src, ring: p.ring}, beep.Callback(func() {
		p.playing.Store(false)
	}))}
	p.playing.Store(true)

	if cfg.Silent {
		go p.pump()
		return p, nil
	}
	close(p.done)
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(p.ctrl)
	return p, nil
}

func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open audio: %w", err)
	}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return stream, format, nil
}

// pump drains the stream at the sample rate when no speaker consumes it.
func (p *FilePlayer) pump() {
	defer close(p.done)
	buf := make([][2]float64, p.format.SampleRate.N(pumpInterval))
	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			_, ok := p.ctrl.Stream(buf)
			p.mu.Unlock()
			if !ok {
				return
			}
		}
	}
}

func (p *FilePlayer) locked(fn func()) {
	if p.silent {
		p.mu.Lock()
		defer p.mu.Unlock()
	} else {
		speaker.Lock()
		defer speaker.Unlock()
	}
	fn()
}

// TogglePause pauses or resumes playback.
func (p *FilePlayer) TogglePause() {
	p.locked(func() { p.ctrl.Paused = !p.ctrl.Paused })
}

// Samples returns the recently played samples, oldest first.
func (p *FilePlayer) Samples() []float32 { return p.ring.snapshot() }

// SampleRate is the file's native rate.
func (p *FilePlayer) SampleRate() float64 { return float64(p.format.SampleRate) }

// Label is the file name.
func (p *FilePlayer) Label() string { return p.label }

// Playing is false once the file ended or while paused.
func (p *FilePlayer) Playing() bool {
	if !p.playing.Load() {
		return false
	}
	paused := false
	p.locked(func() { paused = p.ctrl.Paused })
	return !paused
}

// Close stops playback and releases the decoder.
func (p *FilePlayer) Close() error {
	if p.silent {
		select {
		case <-p.stop:
		default:
			close(p.stop)
		}
	} else {
		speaker.Clear()
	}
	<-p.done
	p.playing.Store(false)
	return p.stream.Close()
}

// tap passes audio through while copying a mono mix into the ring.
type tap struct {
	s    beep.Streamer
	ring *ring
	mono []float32
}

func (t *tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.s.Stream(samples)
	t.mono = t.mono[:0]
	for i := 0; i < n; i++ {
		t.mono = append(t.mono, float32((samples[i][0]+samples[i][1])/2))
	}
	t.ring.write(t.mono)
	return n, ok
}

func (t *tap) Err() error { return t.s.Err() }
