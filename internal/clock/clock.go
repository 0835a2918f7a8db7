package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time.Now so workers and state transitions are testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func NewRealClock() Clock {
	return realClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewRealClock),
)
