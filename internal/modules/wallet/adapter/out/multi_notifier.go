package out

import (
	"context"
	"errors"

	"studypact/internal/modules/wallet/domain"
	walletout "studypact/internal/modules/wallet/port/out"
)

// MultiNotifier delivers to every sink and joins their errors.
type MultiNotifier []walletout.Notifier

func (m MultiNotifier) Notify(ctx context.Context, notice domain.Notice) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
