package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// profiler appends per-section frame timings as CSV. A nil profiler is a
// no-op.
type profiler struct {
	mu    sync.Mutex
	w     io.Writer
	close func() error
	frame int
	start time.Time
	last  time.Time
}

func newProfiler(path string, logger *log.Logger) *profiler {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if logger != nil {
			logger.Printf("profiler disabled: %v", err)
		}
		return nil
	}
	return newProfilerTo(f, f.Close)
}

func newProfilerTo(w io.Writer, closeFn func() error) *profiler {
	p := &profiler{w: w, close: closeFn}
	fmt.Fprintln(p.w, "timestamp,frame,section,delta_ms")
	return p
}

func (p *profiler) beginFrame() {
	if p == nil {
		return
	}
	now := time.Now()
	p.frame++
	p.start = now
	p.last = now
}

// markSection records the time since the previous mark.
func (p *profiler) markSection(name string) {
	if p == nil {
		return
	}
	now := time.Now()
	delta := now.Sub(p.last).Seconds() * 1000
	p.last = now
	p.log(name, delta)
}

func (p *profiler) endFrame() {
	if p == nil {
		return
	}
	p.log("frame_total", time.Since(p.start).Seconds()*1000)
}

func (p *profiler) Close() error {
	if p == nil || p.close == nil {
		return nil
	}
	return p.close()
}

func (p *profiler) log(section string, deltaMs float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	timestamp := time.Now().Format(time.RFC3339Nano)
	fmt.Fprintf(p.w, "%s,%d,%s,%.3f\n", timestamp, p.frame, section, deltaMs)
}
