package sessionrepo

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
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

func createRandomSession(t *testing.T) domain.Session {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(10))
	require.NoError(t, err)

	user, err := testUserRepo.Create(context.Background(), domain.CreateUserParams{
		Name:           randompkg.Name(),
		Email:          randompkg.Email(),
		HashedPassword: hashedPassword,
	})
	require.NoError(t, err)

	arg := domain.CreateSessionParams{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: randompkg.String(32),
		UserAgent:    "test-agent",
		ClientIP:     "127.0.0.1",
		IsBlocked:    false,
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}

	session, err := testRepo.Create(context.Background(), arg)
	require.NoError(t, err)

	require.Equal(t, arg.ID, session.ID)
	require.Equal(t, arg.UserID, session.UserID)
	require.Equal(t, arg.RefreshToken, session.RefreshToken)
	require.False(t, session.IsBlocked)
	require.WithinDuration(t, arg.ExpiresAt, session.ExpiresAt, time.Second)

	return session
}

func TestCreate(t *testing.T) {
	createRandomSession(t)
}

func TestGet(t *testing.T) {
	session := createRandomSession(t)

	got, err := testRepo.Get(context.Background(), session.ID)
	require.NoError(t, err)
	require.Equal(t, session.ID, got.ID)
	require.Equal(t, session.UserID, got.UserID)
	require.Equal(t, session.RefreshToken, got.RefreshToken)

	_, err = testRepo.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
