package accountrepo

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/internal/userrepo"
	"github.com/go-pool/pool-bank/pkg/configpkg"
	"github.com/go-pool/pool-bank/pkg/passpkg"
	"github.com/go-pool/pool-bank/pkg/randompkg"
)

var (
	testDB       *sql.DB
	testRepo     *RepoPGS
	testUserRepo *userrepo.RepoPGS
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	testDB, err = sql.Open(config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal("cannot connect to db:", err)
	}

	testRepo = NewRepoPGS(testDB)
	testUserRepo = userrepo.NewRepoPGS(testDB)

	os.Exit(m.Run())
}

func createRandomUser(t *testing.T) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	user, err := testUserRepo.Create(context.Background(), domain.CreateUserParams{
		Name:           randompkg.Name(),
		Email:          randompkg.Email(),
		HashedPassword: hashedPassword,
	})
	require.NoError(t, err)

	return user
}

func createRandomPersonal(t *testing.T, owner domain.User, balance int64) domain.Account {
	t.Helper()

	account, err := testRepo.CreatePersonal(context.Background(), domain.CreatePersonalAccountParams{
		Name:           randompkg.Name(),
		OwnerUserID:    owner.ID,
		InitialBalance: balance,
	})
	require.NoError(t, err)
	require.NotEmpty(t, account)

	require.Equal(t, domain.KindPersonal, account.Kind)
	require.NotNil(t, account.OwnerUserID)
	require.Equal(t, owner.ID, *account.OwnerUserID)
	require.Equal(t, balance, account.Balance)
	require.NotEmpty(t, account.Number)
	require.NotZero(t, account.CreatedAt)

	return account
}

func TestCreatePersonal(t *testing.T) {
	user := createRandomUser(t)
	createRandomPersonal(t, user, randompkg.AmountBetween(0, 100_000))
}

func TestCreatePersonalNameTaken(t *testing.T) {
	user := createRandomUser(t)
	account := createRandomPersonal(t, user, 0)

	_, err := testRepo.CreatePersonal(context.Background(), domain.CreatePersonalAccountParams{
		Name:        account.Name,
		OwnerUserID: user.ID,
	})
	require.EqualError(t, err, domain.ErrAccountNameAlreadyExists.Error())

	// The same name under a different owner is fine.
	other := createRandomUser(t)

	_, err = testRepo.CreatePersonal(context.Background(), domain.CreatePersonalAccountParams{
		Name:        account.Name,
		OwnerUserID: other.ID,
	})
	require.NoError(t, err)
}

func TestCreatePersonalOwnerNotFound(t *testing.T) {
	_, err := testRepo.CreatePersonal(context.Background(), domain.CreatePersonalAccountParams{
		Name:        randompkg.Name(),
		OwnerUserID: -1,
	})
	require.EqualError(t, err, domain.ErrOwnerNotFound.Error())
}

func TestCreateGroup(t *testing.T) {
	user := createRandomUser(t)

	account, err := testRepo.CreateGroup(context.Background(), domain.CreateGroupAccountParams{
		Name:          randompkg.Name(),
		CreatorUserID: user.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.KindGroup, account.Kind)
	require.Nil(t, account.OwnerUserID)
}

func TestGet(t *testing.T) {
	user := createRandomUser(t)
	account := createRandomPersonal(t, user, 5_000)

	got, err := testRepo.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, account, got)

	_, err = testRepo.Get(context.Background(), -1)
	require.EqualError(t, err, domain.ErrAccountNotFound.Error())
}

func TestGetByNumber(t *testing.T) {
	user := createRandomUser(t)
	account := createRandomPersonal(t, user, 0)

	got, err := testRepo.GetByNumber(context.Background(), account.Number)
	require.NoError(t, err)
	require.Equal(t, account.ID, got.ID)

	_, err = testRepo.GetByNumber(context.Background(), "110-000-000000")
	require.EqualError(t, err, domain.ErrAccountNotFound.Error())
}

func TestAddBalance(t *testing.T) {
	user := createRandomUser(t)
	account := createRandomPersonal(t, user, 1_000)

	got, err := testRepo.AddBalance(context.Background(), -400, account.ID)
	require.NoError(t, err)
	require.Equal(t, int64(600), got.Balance)

	// The CHECK constraint keeps the balance from going negative.
	_, err = testRepo.AddBalance(context.Background(), -601, account.ID)
	require.EqualError(t, err, domain.ErrInsufficientBalance.Error())
}

func TestList(t *testing.T) {
	user := createRandomUser(t)

	for i := 0; i < 3; i++ {
		createRandomPersonal(t, user, 0)
	}

	accounts, err := testRepo.List(context.Background(), user.ID, 5, 0)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	ids, err := testRepo.ListIDs(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, ids, 3)
}

func TestListIncludesGroupMemberships(t *testing.T) {
	creator := createRandomUser(t)

	group, err := testRepo.CreateGroup(context.Background(), domain.CreateGroupAccountParams{
		Name:          randompkg.Name(),
		CreatorUserID: creator.ID,
	})
	require.NoError(t, err)

	ids, err := testRepo.ListIDs(context.Background(), creator.ID)
	require.NoError(t, err)
	require.Contains(t, ids, group.ID)
}

func TestUpdateName(t *testing.T) {
	user := createRandomUser(t)
	account := createRandomPersonal(t, user, 0)

	newName := randompkg.Name()

	err := testRepo.UpdateName(context.Background(), account.ID, newName)
	require.NoError(t, err)

	got, err := testRepo.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, newName, got.Name)
}

func TestDelete(t *testing.T) {
	user := createRandomUser(t)
	account := createRandomPersonal(t, user, 0)

	// Someone else's account cannot be deleted.
	other := createRandomUser(t)
	err := testRepo.Delete(context.Background(), account.ID, other.ID)
	require.EqualError(t, err, domain.ErrForbidden.Error())

	err = testRepo.Delete(context.Background(), account.ID, user.ID)
	require.NoError(t, err)

	_, err = testRepo.Get(context.Background(), account.ID)
	require.EqualError(t, err, domain.ErrAccountNotFound.Error())
}

func TestDeleteWithHistory(t *testing.T) {
	user := createRandomUser(t)

	// A positive opening balance writes an opening ledger entry.
	account := createRandomPersonal(t, user, 100)

	err := testRepo.Delete(context.Background(), account.ID, user.ID)
	require.EqualError(t, err, domain.ErrAccountHasHistory.Error())

	got, err := testRepo.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, account.ID, got.ID)
}
