package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies the current time. The generator only reads it to resolve a
// default anchor date.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func New() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(New),
)
