// Package memberrepo manages group wallet membership, with every mutation run
// under the wallet's membership-set lease.
package memberrepo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/dbpkg"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
)

// RepoPGS facilitates group member repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns member RepoPGS bound to an open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns member RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const memberColumns = `id, account_id, user_id, role, joined_at`

func scanMember(row *sql.Row) (domain.GroupMember, error) {
	var m domain.GroupMember

	err := row.Scan(
		&m.ID,
		&m.AccountID,
		&m.UserID,
		&m.Role,
		&m.JoinedAt,
	)

	return m, err
}

const getQuery = `
SELECT ` + memberColumns + `
FROM group_member
WHERE account_id = $1 AND user_id = $2
`

// Get returns the membership row of the user on the account.
func (r *RepoPGS) Get(ctx context.Context, accountID, userID int64) (domain.GroupMember, error) {
	l := zerolog.Ctx(ctx)

	m, err := scanMember(r.db.QueryRowContext(ctx, getQuery, accountID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return m, domain.ErrMemberNotFound
		}

		l.Error().Err(err).Send()

		return m, errorspkg.ErrInternal
	}

	return m, nil
}

const listQuery = `
SELECT ` + memberColumns + `
FROM group_member
WHERE account_id = $1
ORDER BY joined_at, id
`

// List returns all members of the account.
func (r *RepoPGS) List(ctx context.Context, accountID int64) ([]domain.GroupMember, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.GroupMember{}

	for rows.Next() {
		var m domain.GroupMember
		if err := rows.Scan(&m.ID, &m.AccountID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

const countOwnersQuery = `
SELECT count(*) FROM group_member
WHERE account_id = $1 AND role = 'OWNER'
`

func countOwners(ctx context.Context, tx *sql.Tx, accountID int64) (int, error) {
	var n int

	if err := tx.QueryRowContext(ctx, countOwnersQuery, accountID).Scan(&n); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Send()
		return 0, errorspkg.ErrInternal
	}

	return n, nil
}

const insertQuery = `
INSERT INTO
    group_member (account_id, user_id, role)
VALUES
    ($1, $2, $3)
RETURNING ` + memberColumns + `
`

// AddMember inserts newUserID as MEMBER. The acting user's OWNER role and the
// target's absence are both read under the membership-set lease.
func (r *RepoPGS) AddMember(ctx context.Context, accountID, actingUserID, newUserID int64) (domain.GroupMember, error) {
	l := zerolog.Ctx(ctx)

	var added domain.GroupMember

	err := r.withMembershipLease(ctx, accountID, func(tx *sql.Tx) error {
		if err := requireOwner(ctx, tx, accountID, actingUserID); err != nil {
			return err
		}

		if _, err := scanMember(tx.QueryRowContext(ctx, getQuery, accountID, newUserID)); err == nil {
			return domain.ErrAlreadyMember
		} else if err != sql.ErrNoRows {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		m, err := scanMember(tx.QueryRowContext(ctx, insertQuery, accountID, newUserID, domain.RoleMember))
		if err != nil {
			l.Error().Err(err).Send()

			if pqErr, ok := err.(*pq.Error); ok {
				switch pqErr.Constraint {
				case "group_member_user_id_fkey":
					return domain.ErrUserNotFound
				case "group_member_account_id_user_id_key":
					return domain.ErrAlreadyMember
				}
			}

			return errorspkg.ErrInternal
		}

		added = m

		return nil
	})

	if err != nil {
		return domain.GroupMember{}, err
	}

	return added, nil
}

const updateRoleQuery = `
UPDATE group_member
SET role = $1
WHERE id = $2
RETURNING ` + memberColumns + `
`

// ChangeRole updates the target's role. Demoting an OWNER re-counts the
// wallet's OWNERs under the lease so two concurrent demotions cannot both
// pass the guard and leave the wallet ownerless.
func (r *RepoPGS) ChangeRole(ctx context.Context, accountID, actingUserID, targetUserID int64, newRole domain.Role) (domain.GroupMember, error) {
	l := zerolog.Ctx(ctx)

	var changed domain.GroupMember

	err := r.withMembershipLease(ctx, accountID, func(tx *sql.Tx) error {
		if err := requireOwner(ctx, tx, accountID, actingUserID); err != nil {
			return err
		}

		target, err := scanMember(tx.QueryRowContext(ctx, getQuery, accountID, targetUserID))
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrMemberNotFound
			}

			l.Error().Err(err).Send()

			return errorspkg.ErrInternal
		}

		if target.Role == newRole {
			return domain.ErrNoOpRoleChange
		}

		if target.IsOwner() && newRole == domain.RoleMember {
			owners, err := countOwners(ctx, tx, accountID)
			if err != nil {
				return err
			}

			if owners <= 1 {
				return domain.ErrLastOwnerProtected
			}
		}

		m, err := scanMember(tx.QueryRowContext(ctx, updateRoleQuery, newRole, target.ID))
		if err != nil {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		changed = m

		return nil
	})

	if err != nil {
		return domain.GroupMember{}, err
	}

	return changed, nil
}

const deleteMemberQuery = `
DELETE FROM group_member
WHERE id = $1
`

// RemoveMember deletes the target's membership row, refusing to remove the
// last OWNER.
func (r *RepoPGS) RemoveMember(ctx context.Context, accountID, actingUserID, targetUserID int64) error {
	l := zerolog.Ctx(ctx)

	return r.withMembershipLease(ctx, accountID, func(tx *sql.Tx) error {
		if err := requireOwner(ctx, tx, accountID, actingUserID); err != nil {
			return err
		}

		target, err := scanMember(tx.QueryRowContext(ctx, getQuery, accountID, targetUserID))
		if err != nil {
			if err == sql.ErrNoRows {
				return domain.ErrMemberNotFound
			}

			l.Error().Err(err).Send()

			return errorspkg.ErrInternal
		}

		if target.IsOwner() {
			owners, err := countOwners(ctx, tx, accountID)
			if err != nil {
				return err
			}

			if owners <= 1 {
				return domain.ErrLastOwnerProtected
			}
		}

		if _, err := tx.ExecContext(ctx, deleteMemberQuery, target.ID); err != nil {
			l.Error().Err(err).Send()
			return errorspkg.ErrInternal
		}

		return nil
	})
}

// requireOwner fails with ErrNotAMember or ErrForbidden unless the acting
// user currently holds the OWNER role, read under the lease.
func requireOwner(ctx context.Context, tx *sql.Tx, accountID, actingUserID int64) error {
	actor, err := scanMember(tx.QueryRowContext(ctx, getQuery, accountID, actingUserID))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrNotAMember
		}

		zerolog.Ctx(ctx).Error().Err(err).Send()

		return errorspkg.ErrInternal
	}

	if !actor.IsOwner() {
		return domain.ErrForbidden
	}

	return nil
}

const membershipLeaseQuery = `
SELECT id FROM account
WHERE id = $1 AND kind = 'GROUP'
FOR UPDATE
`

// withMembershipLease runs fn inside a transaction holding the exclusive
// lease on the wallet's membership set. The account row stands in for the
// set, serializing every membership mutation of one wallet.
func (r *RepoPGS) withMembershipLease(ctx context.Context, accountID int64, fn func(tx *sql.Tx) error) error {
	l := zerolog.Ctx(ctx)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	var id int64

	if err := tx.QueryRowContext(ctx, membershipLeaseQuery, accountID).Scan(&id); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.Error().Err(rbErr).Send()
		}

		if err == sql.ErrNoRows {
			return domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		if dbpkg.IsBusy(err) {
			return domain.ErrTxBusy
		}

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
