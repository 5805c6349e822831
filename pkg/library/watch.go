package library

import (
	"context"

	"github.com/aretw0/storytree/pkg/adapters/file"
)

// Watch reloads the library whenever one of its sources changes, until
// ctx is done. onReload, if set, is called after every reload attempt.
func (l *Library) Watch(ctx context.Context, onReload func(error)) error {
	changes, err := file.Watch(ctx, l.logger, l.Sources()...)
	if err != nil {
		return err
	}
	for range changes {
		err := l.Reload(ctx)
		if err != nil {
			l.logger.Error("Reload failed", "err", err)
		}
		if onReload != nil {
			onReload(err)
		}
	}
	return ctx.Err()
}
