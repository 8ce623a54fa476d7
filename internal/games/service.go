package games

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goldenreel/goldenreel/internal/ledger"
	"github.com/goldenreel/goldenreel/internal/notification"
)

// ErrStakeOutOfRange indicates the stake falls outside the variant's bet
// limits.
var ErrStakeOutOfRange = errors.New("stake outside variant bet limits")

// Service serves the games catalog and settles rounds against the ledger.
type Service struct {
	repo     Repository
	ledger   *ledger.Service
	notifier notification.Notifier
}

// NewService builds a games service.
func NewService(repo Repository, ledgerSvc *ledger.Service, notifier notification.Notifier) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, notifier: notifier}
}

// List returns the active catalog.
func (s *Service) List(ctx context.Context) ([]Game, error) {
	return s.repo.ListActive(ctx)
}

// SettleInput captures the outcome of one finished game round.
type SettleInput struct {
	UserID      string
	VariantID   string
	StakeCents  int64
	PayoutCents int64
	RoundID     string
}

// Settle validates the stake against the variant's bet limits and posts the
// round to the ledger: the stake withdrawal and any payout deposit land in a
// single unit of work, so the player's wallet can never end up with the
// stake taken and the payout missing.
func (s *Service) Settle(ctx context.Context, input SettleInput) (int64, error) {
	variant, err := s.repo.GetVariant(ctx, input.VariantID)
	if err != nil {
		return 0, err
	}
	if input.StakeCents < variant.MinBet || input.StakeCents > variant.MaxBet {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrStakeOutOfRange, input.StakeCents, variant.MinBet, variant.MaxBet)
	}
	if input.RoundID == "" {
		input.RoundID = uuid.NewString()
	}

	balance, err := s.ledger.SettleRound(ctx, ledger.SettlementInput{
		OwnerID:   input.UserID,
		Stake:     input.StakeCents,
		Payout:    input.PayoutCents,
		Reference: fmt.Sprintf("%s/%s", variant.Name, input.RoundID),
	})
	if err != nil {
		return 0, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindRoundSettled,
			Destination: input.UserID,
			Body:        fmt.Sprintf("Round %s settled: stake %d, payout %d", input.RoundID, input.StakeCents, input.PayoutCents),
		})
	}

	return balance, nil
}
