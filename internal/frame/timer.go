package frame

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/loov/hrtime"
)

// Timer measures CPU time between frames and logs a summary every interval.
type Timer struct {
	interval time.Duration
	logger   *log.Logger
	now      func() time.Duration

	windowStart time.Duration
	last        time.Duration
	frames      int
	slowest     time.Duration
}

func NewTimer(interval time.Duration, logger *log.Logger) *Timer {
	return newTimer(interval, logger, hrtime.Now)
}

func newTimer(interval time.Duration, logger *log.Logger, now func() time.Duration) *Timer {
	start := now()
	return &Timer{
		interval:    interval,
		logger:      logger,
		now:         now,
		windowStart: start,
		last:        start,
	}
}

type Stats struct {
	Frames  int
	FPS     float64
	Average time.Duration
	Slowest time.Duration
}

// Tick marks the end of a frame. Once an interval has elapsed it returns the
// stats for that window, logs them, and starts a new window.
func (t *Timer) Tick() (Stats, bool) {
	now := t.now()
	frameTime := now - t.last
	t.last = now
	t.frames++
	if frameTime > t.slowest {
		t.slowest = frameTime
	}

	elapsed := now - t.windowStart
	if elapsed < t.interval {
		return Stats{}, false
	}

	stats := Stats{
		Frames:  t.frames,
		FPS:     float64(t.frames) / elapsed.Seconds(),
		Average: elapsed / time.Duration(t.frames),
		Slowest: t.slowest,
	}
	if t.logger != nil {
		t.logger.Info("frame stats",
			"fps", int(stats.FPS+0.5),
			"avg", stats.Average,
			"slowest", stats.Slowest)
	}

	t.windowStart = now
	t.frames = 0
	t.slowest = 0
	return stats, true
}
