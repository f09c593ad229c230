// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"
	"strings"
	"time"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/metricspkg"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	CreatePersonal(ctx context.Context, arg domain.CreatePersonalAccountParams) (domain.Account, error)
	CreateGroup(ctx context.Context, arg domain.CreateGroupAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int64) (domain.Account, error)
	GetByNumber(ctx context.Context, number string) (domain.Account, error)
	List(ctx context.Context, userID int64, limit, offset int32) ([]domain.Account, error)
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id, actingUserID int64) error
}

// MemberRepo provides the membership lookups needed for permission checks.
type MemberRepo interface {
	Get(ctx context.Context, accountID, userID int64) (domain.GroupMember, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo       Repo
	memberRepo MemberRepo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo, mr MemberRepo) *Service {
	return &Service{
		repo:       ar,
		memberRepo: mr,
	}
}

// CreatePersonal creates a personal account owned by the user.
func (s *Service) CreatePersonal(ctx context.Context, arg domain.CreatePersonalAccountParams) (domain.Account, error) {
	if arg.InitialBalance < 0 {
		return domain.Account{}, domain.ErrNegativeInitialBalance
	}

	arg.Name = strings.TrimSpace(arg.Name)

	return s.repo.CreatePersonal(ctx, arg)
}

// CreateGroup creates a group wallet with the creator as first OWNER.
func (s *Service) CreateGroup(ctx context.Context, arg domain.CreateGroupAccountParams) (domain.Account, error) {
	if arg.InitialBalance < 0 {
		return domain.Account{}, domain.ErrNegativeInitialBalance
	}

	arg.Name = strings.TrimSpace(arg.Name)

	return s.repo.CreateGroup(ctx, arg)
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// GetByNumber returns the account with the given human readable number.
func (s *Service) GetByNumber(ctx context.Context, number string) (domain.Account, error) {
	return s.repo.GetByNumber(ctx, number)
}

// List returns accounts the user owns or is a member of.
func (s *Service) List(ctx context.Context, userID int64, pageSize, pageID int32) ([]domain.Account, error) {
	limit := pageSize
	offset := (pageID - 1) * pageSize

	return s.repo.List(ctx, userID, limit, offset)
}

// Rename changes the account's display name. The acting user must be the
// personal owner or a group OWNER.
func (s *Service) Rename(ctx context.Context, id, actingUserID int64, newName string) error {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.checkAdminPermission(ctx, account, actingUserID); err != nil {
		return err
	}

	return s.repo.UpdateName(ctx, id, strings.TrimSpace(newName))
}

// Delete removes an account without ledger history. Permission and the
// history check run under the account lease in the repository.
func (s *Service) Delete(ctx context.Context, id, actingUserID int64) (err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("delete_account", start, err) }()

	return s.repo.Delete(ctx, id, actingUserID)
}

func (s *Service) checkAdminPermission(ctx context.Context, account domain.Account, actingUserID int64) error {
	switch account.Kind {
	case domain.KindPersonal:
		if account.OwnerUserID == nil || *account.OwnerUserID != actingUserID {
			return domain.ErrForbidden
		}
	case domain.KindGroup:
		member, err := s.memberRepo.Get(ctx, account.ID, actingUserID)
		if err != nil {
			if err == domain.ErrMemberNotFound {
				return domain.ErrForbidden
			}

			return err
		}

		if !member.IsOwner() {
			return domain.ErrForbidden
		}
	}

	return nil
}
