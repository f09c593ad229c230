// Package cardservice manages business logic layer of the card directory.
package cardservice

import (
	"context"

	"github.com/go-pool/pool-bank/internal/domain"
)

// Repo provides data access layer interface needed by card service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package cardservice
type Repo interface {
	Create(ctx context.Context, accountID int64, maskedNo, brand string) (domain.Card, error)
	Get(ctx context.Context, id int64) (domain.Card, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Card, error)
	UpdateStatus(ctx context.Context, id int64, status domain.CardStatus) (domain.Card, error)
	Delete(ctx context.Context, id int64) error
}

// Service facilitates card service layer logic.
type Service struct {
	repo Repo
}

// New returns card service struct to manage card bussines logic.
func New(cr Repo) *Service {
	return &Service{repo: cr}
}

// Register registers a card on the account.
func (s *Service) Register(ctx context.Context, accountID int64, maskedNo, brand string) (domain.Card, error) {
	return s.repo.Create(ctx, accountID, maskedNo, brand)
}

// Get returns the card with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Card, error) {
	return s.repo.Get(ctx, id)
}

// ListByAccount returns the account's cards.
func (s *Service) ListByAccount(ctx context.Context, accountID int64) ([]domain.Card, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// ChangeStatus blocks or unblocks the card.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status domain.CardStatus) (domain.Card, error) {
	return s.repo.UpdateStatus(ctx, id, status)
}

// Delete removes a card with no linked ledger entries.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
