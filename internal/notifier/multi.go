package notifier

import (
	"context"
	"errors"
	"sync"

	"github.com/gdg-garage/garage-events-api/internal/core"
	"github.com/gdg-garage/garage-events-api/internal/models"
	"golang.org/x/sync/errgroup"
)

// Multi delivers every notification to all of its notifiers concurrently.
// One failing channel does not stop the others; all failures are joined.
type Multi []core.Notifier

func (m Multi) NotifyRegistered(ctx context.Context, event *models.Event, reg *models.Registration) error {
	return m.each(ctx, func(ctx context.Context, n core.Notifier) error {
		return n.NotifyRegistered(ctx, event, reg)
	})
}

func (m Multi) NotifyCanceled(ctx context.Context, event *models.Event, reg *models.Registration) error {
	return m.each(ctx, func(ctx context.Context, n core.Notifier) error {
		return n.NotifyCanceled(ctx, event, reg)
	})
}

func (m Multi) NotifyEventDeleted(ctx context.Context, event *models.Event) error {
	return m.each(ctx, func(ctx context.Context, n core.Notifier) error {
		return n.NotifyEventDeleted(ctx, event)
	})
}

func (m Multi) each(ctx context.Context, fn func(context.Context, core.Notifier) error) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, n := range m {
		g.Go(func() error {
			if err := fn(ctx, n); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
