package strip

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Sim keeps the last frame in memory instead of driving hardware. It logs a
// compact summary per frame at trace level.
type Sim struct {
	mu     sync.Mutex
	count  int
	last   []Color
	frames int
	log    zerolog.Logger
}

func NewSim(count int, log zerolog.Logger) *Sim {
	return &Sim{count: count, last: make([]Color, count), log: log}
}

func (s *Sim) String() string { return fmt.Sprintf("sim{%d leds}", s.count) }

func (s *Sim) Refresh(cells []Color) error {
	if len(cells) != s.count {
		return fmt.Errorf("%w: got %d cells, strip has %d", ErrFrameLength, len(cells), s.count)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.last, cells)
	s.frames++
	if e := s.log.Trace(); e.Enabled() && len(cells) > 0 {
		lit := 0
		for _, c := range cells {
			if c != Off {
				lit++
			}
		}
		e.Int("frame", s.frames).Int("lit", lit).Stringer("first", cells[0]).Msg("sim refresh")
	}
	return nil
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Color, len(s.last))
	copy(out, s.last)
	return out
}

func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Sim) Close() error { return nil }
