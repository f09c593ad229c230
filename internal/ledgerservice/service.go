// Package ledgerservice manages business logic layer of the ledger: the
// income, expense, card-expense and transfer operations, and the reporting
// search over committed entries.
package ledgerservice

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/metricspkg"
)

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Income(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error)
	Expense(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error)
	CardExpense(ctx context.Context, arg domain.CreateCardExpenseParams) (domain.Entry, error)
	Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
	Search(ctx context.Context, arg domain.SearchEntriesParams) ([]domain.Entry, error)
}

// AccountRepo provides the account ids visible to a user, to scope searches.
type AccountRepo interface {
	ListIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo        Repo
	accountRepo AccountRepo
}

// New returns ledger service struct to manage ledger bussines logic.
func New(lr Repo, ar AccountRepo) *Service {
	return &Service{
		repo:        lr,
		accountRepo: ar,
	}
}

// Income records an income on the account.
func (s *Service) Income(ctx context.Context, arg domain.CreateEntryParams) (entry domain.Entry, err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("income", start, err) }()

	if arg.Amount <= 0 {
		zerolog.Ctx(ctx).Info().Int64("amount", arg.Amount).Msg("invalid income amount")
		return domain.Entry{}, domain.ErrInvalidAmount
	}

	return s.repo.Income(ctx, arg)
}

// Expense records an expense on the account.
func (s *Service) Expense(ctx context.Context, arg domain.CreateEntryParams) (entry domain.Entry, err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("expense", start, err) }()

	if arg.Amount <= 0 {
		zerolog.Ctx(ctx).Info().Int64("amount", arg.Amount).Msg("invalid expense amount")
		return domain.Entry{}, domain.ErrInvalidAmount
	}

	return s.repo.Expense(ctx, arg)
}

// CardExpense records a card expense on the card's account.
func (s *Service) CardExpense(ctx context.Context, arg domain.CreateCardExpenseParams) (entry domain.Entry, err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("card_expense", start, err) }()

	if arg.Amount <= 0 {
		zerolog.Ctx(ctx).Info().Int64("amount", arg.Amount).Msg("invalid card expense amount")
		return domain.Entry{}, domain.ErrInvalidAmount
	}

	return s.repo.CardExpense(ctx, arg)
}

// Transfer moves money between two distinct accounts.
func (s *Service) Transfer(ctx context.Context, arg domain.CreateTransferParams) (result domain.TransferTxResult, err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("transfer", start, err) }()

	l := zerolog.Ctx(ctx)

	if arg.Amount <= 0 {
		l.Info().Int64("amount", arg.Amount).Msg("invalid transfer amount")
		return domain.TransferTxResult{}, domain.ErrInvalidAmount
	}

	if arg.FromAccountID == arg.ToAccountID {
		l.Info().Int64("account_id", arg.FromAccountID).Msg("transfer to the same account")
		return domain.TransferTxResult{}, domain.ErrSameAccountTransfer
	}

	return s.repo.Transfer(ctx, arg)
}

// Search returns ledger entries visible to the user, most recent first.
// Requested account filters outside the user's own accounts are dropped.
func (s *Service) Search(ctx context.Context, userID int64, arg domain.SearchEntriesParams) ([]domain.Entry, error) {
	visible, err := s.accountRepo.ListIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(arg.AccountIDs) == 0 {
		arg.AccountIDs = visible
	} else {
		arg.AccountIDs = intersect(arg.AccountIDs, visible)
	}

	if len(arg.AccountIDs) == 0 {
		return nil, nil
	}

	if arg.Limit <= 0 {
		arg.Limit = 50
	}

	return s.repo.Search(ctx, arg)
}

func intersect(requested, visible []int64) []int64 {
	set := make(map[int64]struct{}, len(visible))
	for _, id := range visible {
		set[id] = struct{}{}
	}

	out := requested[:0]

	for _, id := range requested {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}

	return out
}
