package out

import (
	"context"

	walletdto "studypact/internal/modules/wallet/dto"
	walletin "studypact/internal/modules/wallet/port/in"
	sessionout "studypact/internal/modules/session/port/out"
)

type WalletAdapter struct {
	wallet walletin.Usecase
}

func NewWalletAdapter(wallet walletin.Usecase) sessionout.WalletPort {
	return &WalletAdapter{wallet: wallet}
}

func (a *WalletAdapter) Balance(ctx context.Context) (int64, error) {
	out, err := a.wallet.Balance(ctx)
	if err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (a *WalletAdapter) Penalize(ctx context.Context, amount int64, reason, message string) (int64, error) {
	out, err := a.wallet.Penalize(ctx, walletdto.AmountInput{Amount: amount, Reason: reason, Message: message})
	if err != nil {
		return 0, err
	}
	return -out.Amount, nil
}

func (a *WalletAdapter) Reward(ctx context.Context, amount int64, reason, message string) error {
	_, err := a.wallet.Reward(ctx, walletdto.AmountInput{Amount: amount, Reason: reason, Message: message})
	return err
}

func (a *WalletAdapter) Notify(ctx context.Context, kind, message string) {
	a.wallet.Notify(ctx, kind, message)
}
