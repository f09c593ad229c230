package ledgerrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
)

const getQuery = `
SELECT ` + entryColumns + `
FROM ledger_entry
WHERE id = $1
`

// Get returns the entry with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	e, err := scanEntry(r.db.QueryRowContext(ctx, getQuery, id))
	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return e, domain.ErrEntryNotFound
		}

		return e, errorspkg.ErrInternal
	}

	return e, nil
}

const searchQuery = `
SELECT ` + entryColumns + `
FROM ledger_entry
WHERE account_id = ANY($1)
  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
  AND ($3::timestamptz IS NULL OR occurred_at <= $3)
  AND ($4::bigint IS NULL OR amount >= $4)
  AND ($5::bigint IS NULL OR amount <= $5)
ORDER BY occurred_at DESC, id DESC
LIMIT $6 OFFSET $7
`

// Search is the read-only reporting projection over the ledger: time ordered,
// filterable by account set, date range and amount range. It takes no leases.
func (r *RepoPGS) Search(ctx context.Context, arg domain.SearchEntriesParams) ([]domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	if len(arg.AccountIDs) == 0 {
		return []domain.Entry{}, nil
	}

	rows, err := r.db.QueryContext(ctx, searchQuery,
		pq.Array(arg.AccountIDs),
		arg.DateFrom,
		arg.DateTo,
		arg.MinAmount,
		arg.MaxAmount,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Entry{}

	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(
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
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const sumByAccountQuery = `
SELECT COALESCE(SUM(CASE direction WHEN 'IN' THEN amount ELSE -amount END), 0)
FROM ledger_entry
WHERE account_id = $1
`

// SumByAccount reconstructs the account balance from its ledger:
// sum of IN amounts minus sum of OUT amounts.
func (r *RepoPGS) SumByAccount(ctx context.Context, accountID int64) (int64, error) {
	l := zerolog.Ctx(ctx)

	var sum int64

	if err := r.db.QueryRowContext(ctx, sumByAccountQuery, accountID).Scan(&sum); err != nil {
		l.Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return sum, nil
}

const listByTransferKeyQuery = `
SELECT ` + entryColumns + `
FROM ledger_entry
WHERE transfer_key = $1
ORDER BY direction DESC
`

// ListByTransferKey returns the legs recorded for one transfer key.
func (r *RepoPGS) ListByTransferKey(ctx context.Context, key string) ([]domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listByTransferKeyQuery, key)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Entry{}

	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(
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
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
