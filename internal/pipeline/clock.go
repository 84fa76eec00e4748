package pipeline

import "github.com/jonboulle/clockwork"

// clock stamps runs and the forecast request's upper time bound. Tests
// freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the run time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
