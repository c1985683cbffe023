package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time to the save pipeline.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// New returns the wall clock in UTC.
func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
