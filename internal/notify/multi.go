package notify

import (
	"context"
	"errors"

	"github.com/cypherlabdev/maestro-tips/internal/models"
	"github.com/cypherlabdev/maestro-tips/internal/service"
)

// Multi fans every notification out to all of its notifiers. One failing
// notifier does not stop the others; their errors are joined.
type Multi []service.Notifier

func (m Multi) TipPublished(ctx context.Context, tip *models.Tip) error {
	var errs []error
	for _, n := range m {
		if err := n.TipPublished(ctx, tip); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) MessageReceived(ctx context.Context, msg *models.Message) error {
	var errs []error
	for _, n := range m {
		if err := n.MessageReceived(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
