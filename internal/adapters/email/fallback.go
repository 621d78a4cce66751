package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"flockmanager/internal/domain"
)

type namedMailer struct {
	name   string
	mailer domain.Mailer
}

// fallbackMailer tries each transport in order. The first success wins; when
// all fail the joined error is returned.
type fallbackMailer struct {
	chain  []namedMailer
	logger *slog.Logger
}

func (f *fallbackMailer) Send(ctx context.Context, to, subject, html, text string) error {
	var errs []error
	for _, m := range f.chain {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := m.mailer.Send(ctx, to, subject, html, text)
		if err == nil {
			return nil
		}
		f.logger.WarnContext(ctx, "email transport failed, trying next", "transport", m.name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", m.name, err))
	}
	return errors.Join(errs...)
}
