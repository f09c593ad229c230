package cardrepo_test

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pool/pool-bank/internal/accountrepo"
	"github.com/go-pool/pool-bank/internal/cardrepo"
	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/internal/ledgerrepo"
	"github.com/go-pool/pool-bank/internal/userrepo"
	"github.com/go-pool/pool-bank/pkg/configpkg"
	"github.com/go-pool/pool-bank/pkg/passpkg"
	"github.com/go-pool/pool-bank/pkg/randompkg"
)

var (
	testRepo        *cardrepo.RepoPGS
	testAccountRepo *accountrepo.RepoPGS
	testLedgerRepo  *ledgerrepo.RepoPGS
	testUserRepo    *userrepo.RepoPGS
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	testDB, err := sql.Open(config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal("cannot connect to db:", err)
	}

	testRepo = cardrepo.NewRepoPGS(testDB)
	testAccountRepo = accountrepo.NewRepoPGS(testDB)
	testLedgerRepo = ledgerrepo.NewRepoPGS(testDB)
	testUserRepo = userrepo.NewRepoPGS(testDB)

	os.Exit(m.Run())
}

func createRandomAccount(t *testing.T, balance int64) (domain.User, domain.Account) {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	user, err := testUserRepo.Create(context.Background(), domain.CreateUserParams{
		Name:           randompkg.Name(),
		Email:          randompkg.Email(),
		HashedPassword: hashedPassword,
	})
	require.NoError(t, err)

	account, err := testAccountRepo.CreatePersonal(context.Background(), domain.CreatePersonalAccountParams{
		Name:           randompkg.Name(),
		OwnerUserID:    user.ID,
		InitialBalance: balance,
	})
	require.NoError(t, err)

	return user, account
}

func createRandomCard(t *testing.T, accountID int64) domain.Card {
	t.Helper()

	card, err := testRepo.Create(context.Background(), accountID, randompkg.MaskedCardNumber(), "VISA")
	require.NoError(t, err)
	require.Equal(t, accountID, card.AccountID)
	require.Equal(t, domain.CardActive, card.Status)
	require.NotZero(t, card.CreatedAt)

	return card
}

func TestCreate(t *testing.T) {
	_, account := createRandomAccount(t, 0)
	card := createRandomCard(t, account.ID)

	// Duplicate masked number is rejected.
	_, err := testRepo.Create(context.Background(), account.ID, card.MaskedNo, "VISA")
	require.EqualError(t, err, domain.ErrCardNumberAlreadyExists.Error())
}

func TestGet(t *testing.T) {
	_, account := createRandomAccount(t, 0)
	card := createRandomCard(t, account.ID)

	got, err := testRepo.Get(context.Background(), card.ID)
	require.NoError(t, err)
	require.Equal(t, card, got)

	_, err = testRepo.Get(context.Background(), -1)
	require.EqualError(t, err, domain.ErrCardNotFound.Error())
}

func TestListByAccount(t *testing.T) {
	_, account := createRandomAccount(t, 0)

	for i := 0; i < 3; i++ {
		createRandomCard(t, account.ID)
	}

	cards, err := testRepo.ListByAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.Len(t, cards, 3)
}

func TestUpdateStatus(t *testing.T) {
	_, account := createRandomAccount(t, 0)
	card := createRandomCard(t, account.ID)

	blocked, err := testRepo.UpdateStatus(context.Background(), card.ID, domain.CardBlocked)
	require.NoError(t, err)
	require.Equal(t, domain.CardBlocked, blocked.Status)

	active, err := testRepo.UpdateStatus(context.Background(), card.ID, domain.CardActive)
	require.NoError(t, err)
	require.Equal(t, domain.CardActive, active.Status)
}

func TestDelete(t *testing.T) {
	_, account := createRandomAccount(t, 0)
	card := createRandomCard(t, account.ID)

	err := testRepo.Delete(context.Background(), card.ID)
	require.NoError(t, err)

	_, err = testRepo.Get(context.Background(), card.ID)
	require.EqualError(t, err, domain.ErrCardNotFound.Error())
}

func TestDeleteWithHistory(t *testing.T) {
	user, account := createRandomAccount(t, 1_000)
	card := createRandomCard(t, account.ID)

	_, err := testLedgerRepo.CardExpense(context.Background(), domain.CreateCardExpenseParams{
		CardID:    card.ID,
		Amount:    100,
		CreatedBy: user.ID,
	})
	require.NoError(t, err)

	err = testRepo.Delete(context.Background(), card.ID)
	require.EqualError(t, err, domain.ErrCardHasHistory.Error())
}
