package out

import (
	"context"

	challengeout "studypact/internal/modules/challenge/port/out"
	walletdto "studypact/internal/modules/wallet/dto"
	walletin "studypact/internal/modules/wallet/port/in"
)

type WalletAdapter struct {
	wallet walletin.Usecase
}

func NewWalletAdapter(wallet walletin.Usecase) challengeout.WalletPort {
	return &WalletAdapter{wallet: wallet}
}

func (a *WalletAdapter) Charge(ctx context.Context, amount int64, reason, message string) error {
	_, err := a.wallet.Charge(ctx, walletdto.AmountInput{Amount: amount, Reason: reason, Message: message})
	return err
}

func (a *WalletAdapter) Penalize(ctx context.Context, amount int64, reason, message string) (int64, error) {
	out, err := a.wallet.Penalize(ctx, walletdto.AmountInput{Amount: amount, Reason: reason, Message: message})
	if err != nil {
		return 0, err
	}
	return -out.Amount, nil
}

func (a *WalletAdapter) Refund(ctx context.Context, amount int64, reason, message string) error {
	_, err := a.wallet.Refund(ctx, walletdto.AmountInput{Amount: amount, Reason: reason, Message: message})
	return err
}

func (a *WalletAdapter) Payout(ctx context.Context, refund, reward int64, badge, message string) (bool, error) {
	var credits []walletdto.CreditInput
	if refund > 0 {
		credits = append(credits, walletdto.CreditInput{Amount: refund, Reason: "challenge entry refunded", Kind: "refund"})
	}
	if reward > 0 {
		credits = append(credits, walletdto.CreditInput{Amount: reward, Reason: "challenge completed", Kind: "reward"})
	}
	out, err := a.wallet.Payout(ctx, walletdto.PayoutInput{Credits: credits, Badge: badge, Message: message})
	if err != nil {
		return false, err
	}
	return out.BadgeGranted, nil
}

func (a *WalletAdapter) Notify(ctx context.Context, kind, message string) {
	a.wallet.Notify(ctx, kind, message)
}
