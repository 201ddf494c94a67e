package tui

import "time"

type stopwatchState int

const (
	stopwatchIdle stopwatchState = iota
	stopwatchRunning
	stopwatchPaused
)

// stopwatch measures running time, excluding pauses. It reads time only
// through now so tests can drive it.
type stopwatch struct {
	now func() time.Time

	state     stopwatchState
	startTime time.Time
	pausedAt  time.Time
	pauseGap  time.Duration
}

func newStopwatch(now func() time.Time) stopwatch {
	if now == nil {
		now = time.Now
	}
	return stopwatch{now: now}
}

func (s *stopwatch) start() {
	switch s.state {
	case stopwatchIdle:
		s.state = stopwatchRunning
		s.startTime = s.now()
		s.pauseGap = 0
	case stopwatchPaused:
		s.resume()
	}
}

func (s *stopwatch) pause() {
	if s.state != stopwatchRunning {
		return
	}
	s.state = stopwatchPaused
	s.pausedAt = s.now()
}

func (s *stopwatch) resume() {
	if s.state != stopwatchPaused {
		return
	}
	s.pauseGap += s.now().Sub(s.pausedAt)
	s.state = stopwatchRunning
}

func (s *stopwatch) toggle() {
	switch s.state {
	case stopwatchRunning:
		s.pause()
	case stopwatchPaused:
		s.resume()
	}
}

// halt freezes the reading; start resumes from it.
func (s *stopwatch) halt() {
	s.pause()
}

func (s *stopwatch) reset() {
	s.state = stopwatchIdle
	s.pauseGap = 0
}

func (s stopwatch) running() bool {
	return s.state == stopwatchRunning
}

func (s stopwatch) elapsed() time.Duration {
	switch s.state {
	case stopwatchRunning:
		return s.now().Sub(s.startTime) - s.pauseGap
	case stopwatchPaused:
		return s.pausedAt.Sub(s.startTime) - s.pauseGap
	default:
		return 0
	}
}

// seconds is the elapsed time floored to whole seconds.
func (s stopwatch) seconds() int64 {
	return int64(s.elapsed() / time.Second)
}
