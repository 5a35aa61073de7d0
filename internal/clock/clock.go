// Package clock abstracts time for services that stamp rows.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock returns the current time. Services take it instead of calling
// time.Now directly so tests can pin the issue timestamp.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns a Clock backed by the wall clock, in UTC.
func NewSystemClock() Clock { return systemClock{} }

// Module wires the system clock.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
