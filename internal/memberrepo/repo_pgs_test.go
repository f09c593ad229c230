package memberrepo

import (
	"context"
	"database/sql"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-pool/pool-bank/internal/accountrepo"
	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/internal/userrepo"
	"github.com/go-pool/pool-bank/pkg/configpkg"
	"github.com/go-pool/pool-bank/pkg/passpkg"
	"github.com/go-pool/pool-bank/pkg/randompkg"
)

var (
	testRepo        *RepoPGS
	testAccountRepo *accountrepo.RepoPGS
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

	testRepo = NewRepoPGS(testDB)
	testAccountRepo = accountrepo.NewRepoPGS(testDB)
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

func createRandomGroup(t *testing.T, creator domain.User) domain.Account {
	t.Helper()

	account, err := testAccountRepo.CreateGroup(context.Background(), domain.CreateGroupAccountParams{
		Name:          randompkg.Name(),
		CreatorUserID: creator.ID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.KindGroup, account.Kind)

	return account
}

func TestCreateGroupSeedsFirstOwner(t *testing.T) {
	creator := createRandomUser(t)
	group := createRandomGroup(t, creator)

	members, err := testRepo.List(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, creator.ID, members[0].UserID)
	require.Equal(t, domain.RoleOwner, members[0].Role)
}

func TestAddMember(t *testing.T) {
	creator := createRandomUser(t)
	group := createRandomGroup(t, creator)
	invitee := createRandomUser(t)

	member, err := testRepo.AddMember(context.Background(), group.ID, creator.ID, invitee.ID)
	require.NoError(t, err)
	require.Equal(t, invitee.ID, member.UserID)
	require.Equal(t, domain.RoleMember, member.Role)
	require.NotZero(t, member.JoinedAt)

	// Duplicate invite is rejected.
	_, err = testRepo.AddMember(context.Background(), group.ID, creator.ID, invitee.ID)
	require.EqualError(t, err, domain.ErrAlreadyMember.Error())

	// Plain members cannot invite.
	outsider := createRandomUser(t)
	_, err = testRepo.AddMember(context.Background(), group.ID, invitee.ID, outsider.ID)
	require.EqualError(t, err, domain.ErrForbidden.Error())

	// Non-members cannot invite either.
	_, err = testRepo.AddMember(context.Background(), group.ID, outsider.ID, outsider.ID)
	require.EqualError(t, err, domain.ErrNotAMember.Error())
}

func TestAddMemberAccountNotFound(t *testing.T) {
	creator := createRandomUser(t)
	invitee := createRandomUser(t)

	_, err := testRepo.AddMember(context.Background(), -1, creator.ID, invitee.ID)
	require.EqualError(t, err, domain.ErrAccountNotFound.Error())
}

func TestChangeRole(t *testing.T) {
	creator := createRandomUser(t)
	group := createRandomGroup(t, creator)
	invitee := createRandomUser(t)

	_, err := testRepo.AddMember(context.Background(), group.ID, creator.ID, invitee.ID)
	require.NoError(t, err)

	// Promote to OWNER.
	promoted, err := testRepo.ChangeRole(context.Background(), group.ID, creator.ID, invitee.ID, domain.RoleOwner)
	require.NoError(t, err)
	require.Equal(t, domain.RoleOwner, promoted.Role)

	// Same role again is a no-op error.
	_, err = testRepo.ChangeRole(context.Background(), group.ID, creator.ID, invitee.ID, domain.RoleOwner)
	require.EqualError(t, err, domain.ErrNoOpRoleChange.Error())

	// With two owners, demoting one is fine.
	demoted, err := testRepo.ChangeRole(context.Background(), group.ID, invitee.ID, creator.ID, domain.RoleMember)
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, demoted.Role)

	// The last owner cannot demote themselves.
	_, err = testRepo.ChangeRole(context.Background(), group.ID, invitee.ID, invitee.ID, domain.RoleMember)
	require.EqualError(t, err, domain.ErrLastOwnerProtected.Error())
}

func TestChangeRoleMemberNotFound(t *testing.T) {
	creator := createRandomUser(t)
	group := createRandomGroup(t, creator)
	stranger := createRandomUser(t)

	_, err := testRepo.ChangeRole(context.Background(), group.ID, creator.ID, stranger.ID, domain.RoleOwner)
	require.EqualError(t, err, domain.ErrMemberNotFound.Error())
}

func TestRemoveMember(t *testing.T) {
	creator := createRandomUser(t)
	group := createRandomGroup(t, creator)
	invitee := createRandomUser(t)

	_, err := testRepo.AddMember(context.Background(), group.ID, creator.ID, invitee.ID)
	require.NoError(t, err)

	// The sole owner cannot be removed.
	err = testRepo.RemoveMember(context.Background(), group.ID, creator.ID, creator.ID)
	require.EqualError(t, err, domain.ErrLastOwnerProtected.Error())

	// Removing a plain member works.
	err = testRepo.RemoveMember(context.Background(), group.ID, creator.ID, invitee.ID)
	require.NoError(t, err)

	members, err := testRepo.List(context.Background(), group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	// Already removed.
	err = testRepo.RemoveMember(context.Background(), group.ID, creator.ID, invitee.ID)
	require.EqualError(t, err, domain.ErrMemberNotFound.Error())
}

func TestGet(t *testing.T) {
	creator := createRandomUser(t)
	group := createRandomGroup(t, creator)

	member, err := testRepo.Get(context.Background(), group.ID, creator.ID)
	require.NoError(t, err)
	require.True(t, member.IsOwner())

	stranger := createRandomUser(t)
	_, err = testRepo.Get(context.Background(), group.ID, stranger.ID)
	require.EqualError(t, err, domain.ErrMemberNotFound.Error())
}

func TestConcurrentSelfDemotions(t *testing.T) {
	creator := createRandomUser(t)
	second := createRandomUser(t)
	group := createRandomGroup(t, creator)

	_, err := testRepo.AddMember(context.Background(), group.ID, creator.ID, second.ID)
	require.NoError(t, err)

	_, err = testRepo.ChangeRole(context.Background(), group.ID, creator.ID, second.ID, domain.RoleOwner)
	require.NoError(t, err)

	// Both owners demote themselves at once. The membership lease serializes
	// the two transactions, so exactly one demotion commits and the other
	// sees a single remaining owner.
	owners := []int64{creator.ID, second.ID}
	errs := make(chan error, len(owners))

	var wg sync.WaitGroup
	for _, userID := range owners {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := testRepo.ChangeRole(context.Background(), group.ID, userID, userID, domain.RoleMember)
			errs <- err
		}(userID)
	}
	wg.Wait()
	close(errs)

	var demoted, protected int
	for err := range errs {
		switch err {
		case nil:
			demoted++
		case domain.ErrLastOwnerProtected:
			protected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, demoted)
	require.Equal(t, 1, protected)

	members, err := testRepo.List(context.Background(), group.ID)
	require.NoError(t, err)

	var ownerCount int
	for _, m := range members {
		if m.IsOwner() {
			ownerCount++
		}
	}
	require.Equal(t, 1, ownerCount)
}
