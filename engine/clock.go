package engine

import "time"

// Clock supplies "today" for due-date comparisons. Injected so tests can
// pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func SystemClock() Clock { return systemClock{} }
