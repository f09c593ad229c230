// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/dbpkg"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
	"github.com/go-pool/pool-bank/pkg/randompkg"
)

// How many times to retry a generated account number on unique conflict.
const numberRetries = 5

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns account RepoPGS bound to an open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns account RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const accountColumns = `id, number, kind, name, owner_user_id, balance, created_at`

func scanAccount(row *sql.Row) (domain.Account, error) {
	var a domain.Account

	err := row.Scan(
		&a.ID,
		&a.Number,
		&a.Kind,
		&a.Name,
		&a.OwnerUserID,
		&a.Balance,
		&a.CreatedAt,
	)

	return a, err
}

const getQuery = `
SELECT ` + accountColumns + `
FROM account
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getByNumberQuery = `
SELECT ` + accountColumns + `
FROM account
WHERE number = $1
`

// GetByNumber returns the account with the given human readable number.
func (r *RepoPGS) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getByNumberQuery, number))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getForUpdateQuery = `
SELECT ` + accountColumns + `
FROM account
WHERE id = $1
FOR UPDATE
`

// GetForUpdate fetches the account under an exclusive row lease. The lease
// blocks concurrent GetForUpdate calls on the same account until the owning
// transaction commits or rolls back; it must only be called on a transaction.
func (r *RepoPGS) GetForUpdate(ctx context.Context, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, getForUpdateQuery, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		if dbpkg.IsBusy(err) {
			return a, domain.ErrTxBusy
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const addBalanceQuery = `
UPDATE account
SET balance = balance + $1
WHERE id = $2
RETURNING ` + accountColumns + `
`

// AddBalance changes the account's balance by delta (negative to debit) and
// returns the changed account. The table CHECK constraint backstops the
// balance check done under the lease.
func (r *RepoPGS) AddBalance(ctx context.Context, delta int64, id int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	a, err := scanAccount(r.db.QueryRowContext(ctx, addBalanceQuery, delta, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "account_balance_check" {
				return a, domain.ErrInsufficientBalance
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const listQuery = `
SELECT DISTINCT a.id, a.number, a.kind, a.name, a.owner_user_id, a.balance, a.created_at
FROM account a
LEFT JOIN group_member gm ON gm.account_id = a.id
WHERE a.owner_user_id = $1 OR gm.user_id = $1
ORDER BY a.id
LIMIT $2 OFFSET $3
`

// List returns the accounts the user owns or is a member of.
func (r *RepoPGS) List(ctx context.Context, userID int64, limit, offset int32) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, userID, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Number, &a.Kind, &a.Name, &a.OwnerUserID, &a.Balance, &a.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const listIDsQuery = `
SELECT DISTINCT a.id
FROM account a
LEFT JOIN group_member gm ON gm.account_id = a.id
WHERE a.owner_user_id = $1 OR gm.user_id = $1
`

// ListIDs returns the ids of all accounts visible to the user. The reporting
// layer uses it to scope ledger searches.
func (r *RepoPGS) ListIDs(ctx context.Context, userID int64) ([]int64, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listIDsQuery, userID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	ids := []int64{}

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return ids, nil
}

const createQuery = `
INSERT INTO
    account (number, kind, name, owner_user_id, balance)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING ` + accountColumns + `
`

const personalNameTakenQuery = `
SELECT 1 FROM account
WHERE owner_user_id = $1 AND name = $2 AND kind = 'PERSONAL'
LIMIT 1
`

const openingEntryQuery = `
INSERT INTO
    ledger_entry (account_id, direction, method, amount, memo, occurred_at, created_by)
VALUES
    ($1, 'IN', 'OTHER', $2, 'opening balance', now(), $3)
`

const initialOwnerQuery = `
INSERT INTO
    group_member (account_id, user_id, role)
VALUES
    ($1, $2, 'OWNER')
`

// CreatePersonal creates a personal account in a single transaction. A
// positive initial balance also writes the opening IN entry so the balance
// stays reconstructible from the ledger.
func (r *RepoPGS) CreatePersonal(ctx context.Context, arg domain.CreatePersonalAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var taken int
		err := tx.QueryRowContext(ctx, personalNameTakenQuery, arg.OwnerUserID, arg.Name).Scan(&taken)
		if err == nil {
			return domain.ErrAccountNameAlreadyExists
		}

		if err != sql.ErrNoRows {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		a, err = insertAccount(ctx, tx, domain.KindPersonal, arg.Name, &arg.OwnerUserID, arg.InitialBalance)
		if err != nil {
			return err
		}

		if arg.InitialBalance > 0 {
			if _, err := tx.ExecContext(ctx, openingEntryQuery, a.ID, arg.InitialBalance, arg.OwnerUserID); err != nil {
				l.Error().Err(err).Send()
				return errorspkg.ErrInternal
			}
		}

		return nil
	})

	return a, err
}

// CreateGroup creates a group wallet and registers the creator as its first
// OWNER, atomically.
func (r *RepoPGS) CreateGroup(ctx context.Context, arg domain.CreateGroupAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var a domain.Account

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error

		a, err = insertAccount(ctx, tx, domain.KindGroup, arg.Name, nil, arg.InitialBalance)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, initialOwnerQuery, a.ID, arg.CreatorUserID); err != nil {
			l.Error().Err(err).Send()

			if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "group_member_user_id_fkey" {
				return domain.ErrOwnerNotFound
			}

			return errorspkg.ErrInternal
		}

		if arg.InitialBalance > 0 {
			if _, err := tx.ExecContext(ctx, openingEntryQuery, a.ID, arg.InitialBalance, arg.CreatorUserID); err != nil {
				l.Error().Err(err).Send()
				return errorspkg.ErrInternal
			}
		}

		return nil
	})

	return a, err
}

func insertAccount(ctx context.Context, tx *sql.Tx, kind domain.AccountKind, name string, ownerUserID *int64, balance int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	var (
		a   domain.Account
		err error
	)

	for i := 0; i < numberRetries; i++ {
		number := randompkg.AccountNumber()

		a, err = scanAccount(tx.QueryRowContext(ctx, createQuery, number, kind, name, ownerUserID, balance))
		if err == nil {
			return a, nil
		}

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "account_number_key":
				continue
			case "account_owner_user_id_fkey":
				return a, domain.ErrOwnerNotFound
			case "account_balance_check":
				return a, domain.ErrNegativeInitialBalance
			}
		}

		break
	}

	l.Error().Err(err).Send()

	return a, errorspkg.ErrInternal
}

const updateNameQuery = `
UPDATE account
SET name = $1
WHERE id = $2
`

// UpdateName renames the account. Permission is checked by the service layer.
func (r *RepoPGS) UpdateName(ctx context.Context, id int64, name string) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, updateNameQuery, name, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

const hasEntriesQuery = `
SELECT 1 FROM ledger_entry
WHERE account_id = $1
LIMIT 1
`

const isGroupOwnerQuery = `
SELECT 1 FROM group_member
WHERE account_id = $1 AND user_id = $2 AND role = 'OWNER'
LIMIT 1
`

const deleteQuery = `
DELETE FROM account
WHERE id = $1
`

// Delete removes an untouched account in a single transaction: the account
// lease is taken first so a concurrent expense or transfer cannot land while
// the history check runs. Permission (personal owner or group OWNER) is
// re-checked under the same lease.
func (r *RepoPGS) Delete(ctx context.Context, id, actingUserID int64) error {
	l := zerolog.Ctx(ctx)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		txRepo := NewTxRepoPGS(tx)

		a, err := txRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		switch a.Kind {
		case domain.KindPersonal:
			if a.OwnerUserID == nil || *a.OwnerUserID != actingUserID {
				return domain.ErrForbidden
			}
		case domain.KindGroup:
			var one int
			err := tx.QueryRowContext(ctx, isGroupOwnerQuery, id, actingUserID).Scan(&one)
			if err == sql.ErrNoRows {
				return domain.ErrForbidden
			}

			if err != nil {
				l.Error().Err(err).Send()
				return errorspkg.ErrInternal
			}
		}

		var one int
		err = tx.QueryRowContext(ctx, hasEntriesQuery, id).Scan(&one)
		if err == nil {
			return domain.ErrAccountHasHistory
		}

		if err != sql.ErrNoRows {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		return nil
	})
}

func (r *RepoPGS) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.Error().Err(rbErr).Send()
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()

		if dbpkg.IsBusy(err) {
			return domain.ErrTxBusy
		}

		return errorspkg.ErrInternal
	}

	return nil
}
