package live

import (
	"sync"
	"time"
)

// Sample is one point of the dashboard series.
type Sample struct {
	TakenAt   time.Time `json:"taken_at"`
	Growers   float64   `json:"growers"`
	Decliners float64   `json:"decliners"`
	Net       float64   `json:"net"`
}

// Series is the history split per card, oldest first.
type Series struct {
	Growers   []float64 `json:"growers"`
	Decliners []float64 `json:"decliners"`
	Net       []float64 `json:"net"`
}

// History is a fixed-capacity ring of samples; the oldest drops off first.
type History struct {
	mu    sync.RWMutex
	buf   []Sample
	start int
	count int
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{buf: make([]Sample, size)}
}

func (h *History) Append(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = s
		h.count++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

// Replace swaps the contents for samples, keeping the newest that fit.
func (h *History) Replace(samples []Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if over := len(samples) - len(h.buf); over > 0 {
		samples = samples[over:]
	}
	h.start = 0
	h.count = copy(h.buf, samples)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Samples returns a copy, oldest first.
func (h *History) Samples() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Sample, h.count)
	for i := range h.count {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// Last returns the newest sample.
func (h *History) Last() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return Sample{}, false
	}
	return h.buf[(h.start+h.count-1)%len(h.buf)], true
}

func (h *History) Series() Series {
	samples := h.Samples()
	s := Series{
		Growers:   make([]float64, len(samples)),
		Decliners: make([]float64, len(samples)),
		Net:       make([]float64, len(samples)),
	}
	for i, sample := range samples {
		s.Growers[i] = sample.Growers
		s.Decliners[i] = sample.Decliners
		s.Net[i] = sample.Net
	}
	return s
}
