// Package ledgerrepo manages the ledger table and runs every balance-affecting
// mutation as one database transaction.
package ledgerrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/accountrepo"
	"github.com/go-pool/pool-bank/internal/cardrepo"
	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/dbpkg"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
)

// RepoPGS facilitates ledger repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns ledger RepoPGS bound to an open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns ledger RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const entryColumns = `id, account_id, direction, method, amount, memo, occurred_at, transfer_key, card_id, created_by, created_at`

func scanEntry(row *sql.Row) (domain.Entry, error) {
	var e domain.Entry

	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.Direction,
		&e.Method,
		&e.Amount,
		&e.Memo,
		&e.OccurredAt,
		&e.TransferKey,
		&e.CardID,
		&e.CreatedBy,
		&e.CreatedAt,
	)

	return e, err
}

const createQuery = `
INSERT INTO
    ledger_entry (account_id, direction, method, amount, memo, occurred_at, transfer_key, card_id, created_by)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + entryColumns + `
`

type entryRow struct {
	accountID   int64
	direction   domain.Direction
	method      domain.Method
	amount      int64
	memo        *string
	occurredAt  time.Time
	transferKey *string
	cardID      *int64
	createdBy   *int64
}

// Create appends one immutable ledger entry. It is only called with the
// account lease already held by the surrounding transaction.
func (r *RepoPGS) create(ctx context.Context, arg entryRow) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	e, err := scanEntry(r.db.QueryRowContext(ctx, createQuery,
		arg.accountID,
		arg.direction,
		arg.method,
		arg.amount,
		arg.memo,
		arg.occurredAt,
		arg.transferKey,
		arg.cardID,
		arg.createdBy,
	))

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "ledger_entry_amount_check":
				return e, domain.ErrInvalidAmount
			case "ledger_entry_account_id_fkey":
				return e, domain.ErrAccountNotFound
			case "ledger_entry_card_id_fkey":
				return e, domain.ErrCardNotFound
			}
		}

		return e, errorspkg.ErrInternal
	}

	return e, nil
}

// Income credits the account in a single atomic unit: lease the account row,
// append the IN entry, raise the balance.
func (r *RepoPGS) Income(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	var entry domain.Entry

	err := r.withAccountLease(ctx, arg.AccountID, func(tx *sql.Tx, _ domain.Account) error {
		txRepo := NewTxRepoPGS(tx)

		var err error

		entry, err = txRepo.create(ctx, entryRow{
			accountID:  arg.AccountID,
			direction:  domain.DirectionIn,
			method:     domain.MethodOther,
			amount:     arg.Amount,
			memo:       arg.Memo,
			occurredAt: occurredOrNow(arg.OccurredAt),
			createdBy:  &arg.CreatedBy,
		})
		if err != nil {
			return err
		}

		_, err = accountrepo.NewTxRepoPGS(tx).AddBalance(ctx, arg.Amount, arg.AccountID)

		return err
	})

	if err != nil {
		return domain.Entry{}, err
	}

	return entry, nil
}

// Expense debits the account in a single atomic unit. The balance is re-read
// under the lease; a shortfall aborts before anything is written.
func (r *RepoPGS) Expense(ctx context.Context, arg domain.CreateEntryParams) (domain.Entry, error) {
	return r.expense(ctx, arg.AccountID, arg, domain.MethodOther, nil)
}

// CardExpense behaves as Expense with the card's account, tagging the entry
// with the card. The card row is read inside the same transaction as the
// debit so a card blocked mid-flight cannot slip through.
func (r *RepoPGS) CardExpense(ctx context.Context, arg domain.CreateCardExpenseParams) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Entry{}, errorspkg.ErrInternal
	}

	card, err := cardrepo.NewTxRepoPGS(tx).Get(ctx, arg.CardID)
	if err != nil {
		rollback(ctx, tx)
		return domain.Entry{}, err
	}

	if card.Status == domain.CardBlocked {
		rollback(ctx, tx)
		return domain.Entry{}, domain.ErrCardBlocked
	}

	entry, err := debitInTx(ctx, tx, card.AccountID, domain.CreateEntryParams{
		AccountID:  card.AccountID,
		Amount:     arg.Amount,
		Memo:       arg.Memo,
		OccurredAt: arg.OccurredAt,
		CreatedBy:  arg.CreatedBy,
	}, domain.MethodCard, &card.ID)
	if err != nil {
		rollback(ctx, tx)
		return domain.Entry{}, err
	}

	if err := commit(ctx, tx); err != nil {
		return domain.Entry{}, err
	}

	return entry, nil
}

func (r *RepoPGS) expense(ctx context.Context, accountID int64, arg domain.CreateEntryParams, method domain.Method, cardID *int64) (domain.Entry, error) {
	var entry domain.Entry

	err := r.withAccountLease(ctx, accountID, func(tx *sql.Tx, acc domain.Account) error {
		var err error

		entry, err = debitLocked(ctx, tx, acc, arg, method, cardID)

		return err
	})

	if err != nil {
		return domain.Entry{}, err
	}

	return entry, nil
}

// debitInTx takes the account lease on an already-open transaction and debits.
func debitInTx(ctx context.Context, tx *sql.Tx, accountID int64, arg domain.CreateEntryParams, method domain.Method, cardID *int64) (domain.Entry, error) {
	acc, err := accountrepo.NewTxRepoPGS(tx).GetForUpdate(ctx, accountID)
	if err != nil {
		return domain.Entry{}, err
	}

	return debitLocked(ctx, tx, acc, arg, method, cardID)
}

// debitLocked runs with the account lease already held: re-check balance,
// append the OUT entry, lower the balance.
func debitLocked(ctx context.Context, tx *sql.Tx, acc domain.Account, arg domain.CreateEntryParams, method domain.Method, cardID *int64) (domain.Entry, error) {
	if acc.Balance < arg.Amount {
		return domain.Entry{}, domain.ErrInsufficientBalance
	}

	entry, err := NewTxRepoPGS(tx).create(ctx, entryRow{
		accountID:  acc.ID,
		direction:  domain.DirectionOut,
		method:     method,
		amount:     arg.Amount,
		memo:       arg.Memo,
		occurredAt: occurredOrNow(arg.OccurredAt),
		cardID:     cardID,
		createdBy:  &arg.CreatedBy,
	})
	if err != nil {
		return domain.Entry{}, err
	}

	if _, err := accountrepo.NewTxRepoPGS(tx).AddBalance(ctx, -arg.Amount, acc.ID); err != nil {
		return domain.Entry{}, err
	}

	return entry, nil
}

// Transfer moves money between two accounts as one atomic unit: both rows are
// leased in ascending id order, the source balance is re-checked, and the two
// legs share one correlation key, amount and occurred-at. It is never
// observable that one leg exists without the other.
func (r *RepoPGS) Transfer(ctx context.Context, arg domain.CreateTransferParams) (domain.TransferTxResult, error) {
	var result domain.TransferTxResult

	err := r.withAccountPairLease(ctx, arg.FromAccountID, arg.ToAccountID, func(tx *sql.Tx, from, to domain.Account) error {
		if from.Balance < arg.Amount {
			return domain.ErrInsufficientBalance
		}

		transferKey := uuid.NewString()
		now := time.Now()

		txRepo := NewTxRepoPGS(tx)

		var err error

		result.FromEntry, err = txRepo.create(ctx, entryRow{
			accountID:   from.ID,
			direction:   domain.DirectionOut,
			method:      domain.MethodTransfer,
			amount:      arg.Amount,
			memo:        arg.Memo,
			occurredAt:  now,
			transferKey: &transferKey,
			createdBy:   &arg.CreatedBy,
		})
		if err != nil {
			return err
		}

		result.ToEntry, err = txRepo.create(ctx, entryRow{
			accountID:   to.ID,
			direction:   domain.DirectionIn,
			method:      domain.MethodTransfer,
			amount:      arg.Amount,
			memo:        arg.Memo,
			occurredAt:  now,
			transferKey: &transferKey,
			createdBy:   &arg.CreatedBy,
		})
		if err != nil {
			return err
		}

		accRepo := accountrepo.NewTxRepoPGS(tx)

		// Balance statements also run in ascending id order.
		if from.ID < to.ID {
			result.FromAccount, err = accRepo.AddBalance(ctx, -arg.Amount, from.ID)
			if err != nil {
				return err
			}

			result.ToAccount, err = accRepo.AddBalance(ctx, arg.Amount, to.ID)
		} else {
			result.ToAccount, err = accRepo.AddBalance(ctx, arg.Amount, to.ID)
			if err != nil {
				return err
			}

			result.FromAccount, err = accRepo.AddBalance(ctx, -arg.Amount, from.ID)
		}

		if err != nil {
			return err
		}

		result.TransferKey = transferKey

		return nil
	})

	if err != nil {
		return domain.TransferTxResult{}, err
	}

	return result, nil
}

// withAccountLease runs fn inside a transaction holding the exclusive lease
// on the account row.
func (r *RepoPGS) withAccountLease(ctx context.Context, accountID int64, fn func(tx *sql.Tx, acc domain.Account) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	acc, err := accountrepo.NewTxRepoPGS(tx).GetForUpdate(ctx, accountID)
	if err != nil {
		rollback(ctx, tx)
		return err
	}

	if err := fn(tx, acc); err != nil {
		rollback(ctx, tx)
		return err
	}

	return commit(ctx, tx)
}

// withAccountPairLease leases two account rows in ascending id order, the one
// fixed global order that makes circular waits between concurrent transfers
// impossible, then hands fn the accounts keyed by the caller's ids.
func (r *RepoPGS) withAccountPairLease(ctx context.Context, firstID, secondID int64, fn func(tx *sql.Tx, first, second domain.Account) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	accRepo := accountrepo.NewTxRepoPGS(tx)

	lowID, highID := firstID, secondID
	if lowID > highID {
		lowID, highID = highID, lowID
	}

	low, err := accRepo.GetForUpdate(ctx, lowID)
	if err != nil {
		rollback(ctx, tx)
		return err
	}

	high, err := accRepo.GetForUpdate(ctx, highID)
	if err != nil {
		rollback(ctx, tx)
		return err
	}

	first, second := low, high
	if first.ID != firstID {
		first, second = high, low
	}

	if err := fn(tx, first, second); err != nil {
		rollback(ctx, tx)
		return err
	}

	return commit(ctx, tx)
}

func rollback(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
	}
}

func commit(ctx context.Context, tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()

		if dbpkg.IsBusy(err) {
			return domain.ErrTxBusy
		}

		return errorspkg.ErrInternal
	}

	return nil
}

func occurredOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}

	return time.Now()
}
