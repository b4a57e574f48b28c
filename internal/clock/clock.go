package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall time so date-sensitive logic can be tested.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
