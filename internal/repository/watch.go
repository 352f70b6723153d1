package repository

import (
	"context"

	"github.com/bep/debounce"
)

// watch pushes the result of load on the returned channel, first immediately
// then after every burst of changes on the given topic.
// The channel holds at most one value: a stale pending value is replaced by the
// latest one so a slow reader always converges on the committed state.
// It is closed when ctx is done.
func watch[T any](ctx context.Context, r *Repository, topic string, load func() (T, error)) (<-chan T, error) {
	changes, cancel := r.db.Subscribe(topic)

	first, err := load()
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan T, 1)
	out <- first

	reload := make(chan struct{}, 1)
	signal := func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}

	trigger := signal
	if r.debounce > 0 {
		debounced := debounce.New(r.debounce)
		trigger = func() { debounced(signal) }
	}

	go func() {
		defer close(out)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				trigger()
			case <-reload:
				v, err := load()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					r.log.WithField("topic", topic).WithError(err).Warn("could not refresh subscription")
					continue
				}

				select {
				case <-out:
				default:
				}
				out <- v
			}
		}
	}()

	return out, nil
}
