package clock

import "time"

// Clock is an injectable current-date source. Posting, reconciliation and
// supplier evaluation all stamp their output through it so tests stay
// deterministic.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
