// Package cardrepo manages repository layer of the card directory.
package cardrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/dbpkg"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
)

// RepoPGS facilitates card repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns card RepoPGS bound to an open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns card RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const cardColumns = `id, account_id, masked_no, brand, status, created_at`

func scanCard(row *sql.Row) (domain.Card, error) {
	var c domain.Card

	err := row.Scan(
		&c.ID,
		&c.AccountID,
		&c.MaskedNo,
		&c.Brand,
		&c.Status,
		&c.CreatedAt,
	)

	return c, err
}

const createQuery = `
INSERT INTO
    card (account_id, masked_no, brand)
VALUES
    ($1, $2, $3)
RETURNING ` + cardColumns + `
`

// Create registers the card on the account and returns it. New cards start ACTIVE.
func (r *RepoPGS) Create(ctx context.Context, accountID int64, maskedNo, brand string) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, createQuery, accountID, maskedNo, brand))
	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "card_masked_no_key":
				return c, domain.ErrCardNumberAlreadyExists
			case "card_account_id_fkey":
				return c, domain.ErrAccountNotFound
			}
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const getQuery = `
SELECT ` + cardColumns + `
FROM card
WHERE id = $1
`

// Get returns the card with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const listByAccountQuery = `
SELECT ` + cardColumns + `
FROM card
WHERE account_id = $1
ORDER BY brand, masked_no
`

// ListByAccount returns the account's cards ordered by brand then number.
func (r *RepoPGS) ListByAccount(ctx context.Context, accountID int64) ([]domain.Card, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByAccountQuery, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Card{}

	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.AccountID, &c.MaskedNo, &c.Brand, &c.Status, &c.CreatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, c)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const updateStatusQuery = `
UPDATE card
SET status = $1
WHERE id = $2
RETURNING ` + cardColumns + `
`

// UpdateStatus sets the card's status to ACTIVE or BLOCKED.
func (r *RepoPGS) UpdateStatus(ctx context.Context, id int64, status domain.CardStatus) (domain.Card, error) {
	l := zerolog.Ctx(ctx)

	c, err := scanCard(r.db.QueryRowContext(ctx, updateStatusQuery, status, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return c, domain.ErrCardNotFound
		}

		return c, errorspkg.ErrInternal
	}

	return c, nil
}

const hasEntriesQuery = `
SELECT 1 FROM ledger_entry
WHERE card_id = $1
LIMIT 1
`

const deleteQuery = `
DELETE FROM card
WHERE id = $1
`

// Delete removes a card that no ledger entry references. The history check
// and the delete share one transaction.
func (r *RepoPGS) Delete(ctx context.Context, id int64) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	var one int

	err = tx.QueryRowContext(ctx, hasEntriesQuery, id).Scan(&one)
	if err == nil {
		return domain.ErrCardHasHistory
	}

	if err != sql.ErrNoRows {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	res, err := tx.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrCardNotFound
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	return nil
}
