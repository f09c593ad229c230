// Package memberservice manages business logic layer of group wallet membership.
package memberservice

import (
	"context"
	"time"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/metricspkg"
)

// Repo provides data access layer interface needed by member service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package memberservice
type Repo interface {
	AddMember(ctx context.Context, accountID, actingUserID, newUserID int64) (domain.GroupMember, error)
	ChangeRole(ctx context.Context, accountID, actingUserID, targetUserID int64, newRole domain.Role) (domain.GroupMember, error)
	RemoveMember(ctx context.Context, accountID, actingUserID, targetUserID int64) error
	List(ctx context.Context, accountID int64) ([]domain.GroupMember, error)
}

// UserRepo resolves invitees by email.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// Service facilitates member service layer logic.
type Service struct {
	repo     Repo
	userRepo UserRepo
}

// New returns member service struct to manage membership bussines logic.
func New(mr Repo, ur UserRepo) *Service {
	return &Service{
		repo:     mr,
		userRepo: ur,
	}
}

// AddMemberByEmail resolves the invitee by email and adds them as MEMBER.
// Only a current OWNER of the wallet may invite.
func (s *Service) AddMemberByEmail(ctx context.Context, accountID, actingUserID int64, email string) (m domain.GroupMember, err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("add_member", start, err) }()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return domain.GroupMember{}, err
	}

	return s.repo.AddMember(ctx, accountID, actingUserID, user.ID)
}

// ChangeRole sets the target member's role, keeping at least one OWNER.
func (s *Service) ChangeRole(ctx context.Context, accountID, actingUserID, targetUserID int64, newRole domain.Role) (m domain.GroupMember, err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("change_role", start, err) }()

	return s.repo.ChangeRole(ctx, accountID, actingUserID, targetUserID, newRole)
}

// RemoveMember removes the target member, keeping at least one OWNER.
func (s *Service) RemoveMember(ctx context.Context, accountID, actingUserID, targetUserID int64) (err error) {
	start := time.Now()
	defer func() { metricspkg.Observe("remove_member", start, err) }()

	return s.repo.RemoveMember(ctx, accountID, actingUserID, targetUserID)
}

// List returns the wallet's members.
func (s *Service) List(ctx context.Context, accountID int64) ([]domain.GroupMember, error) {
	return s.repo.List(ctx, accountID)
}
