package translate

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// Guarded stops calling a failing provider. After MaxFailures consecutive errors the
// breaker opens and calls fail immediately until OpenTimeout has passed.
type Guarded struct {
	next Translator
	cb   *gobreaker.CircuitBreaker
}

type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

func DefaultBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{Name: name, MaxFailures: 5, OpenTimeout: 30 * time.Second}
}

func NewGuarded(next Translator, s BreakerSettings) *Guarded {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoTranslation)
		},
	})
	return &Guarded{next: next, cb: cb}
}

func (g *Guarded) Translate(ctx context.Context, word string) (string, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Translate(ctx, word)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Open reports whether the breaker is currently rejecting calls.
func (g *Guarded) Open() bool {
	return g.cb.State() == gobreaker.StateOpen
}
