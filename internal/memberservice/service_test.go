package memberservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/go-pool/pool-bank/internal/domain"
	"github.com/go-pool/pool-bank/pkg/errorspkg"
	"github.com/go-pool/pool-bank/pkg/randompkg"
)

func TestAddMemberByEmail(t *testing.T) {
	accountID := int64(10)
	actingUserID := int64(1)
	invitee := domain.User{
		ID:    2,
		Name:  randompkg.Name(),
		Email: randompkg.Email(),
	}

	testMember := domain.GroupMember{
		ID:        5,
		AccountID: accountID,
		UserID:    invitee.ID,
		Role:      domain.RoleMember,
		JoinedAt:  time.Now().Truncate(time.Second).UTC(),
	}

	testCases := []struct {
		name          string
		email         string
		buildStubs    func(repo *MockRepo, userRepo *MockUserRepo)
		checkResponse func(m domain.GroupMember, err error)
	}{
		{
			name:  "OK",
			email: invitee.Email,
			buildStubs: func(repo *MockRepo, userRepo *MockUserRepo) {
				userRepo.EXPECT().
					GetByEmail(gomock.Any(), gomock.Eq(invitee.Email)).
					Times(1).
					Return(invitee, nil)
				repo.EXPECT().
					AddMember(gomock.Any(), gomock.Eq(accountID), gomock.Eq(actingUserID), gomock.Eq(invitee.ID)).
					Times(1).
					Return(testMember, nil)
			},
			checkResponse: func(m domain.GroupMember, err error) {
				require.NoError(t, err)
				require.Equal(t, testMember, m)
			},
		},
		{
			name:  "InviteeNotFound",
			email: "nobody@example.com",
			buildStubs: func(repo *MockRepo, userRepo *MockUserRepo) {
				userRepo.EXPECT().
					GetByEmail(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
				repo.EXPECT().AddMember(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(m domain.GroupMember, err error) {
				require.Empty(t, m)
				require.EqualError(t, err, domain.ErrUserNotFound.Error())
			},
		},
		{
			name:  "NotAnOwner",
			email: invitee.Email,
			buildStubs: func(repo *MockRepo, userRepo *MockUserRepo) {
				userRepo.EXPECT().
					GetByEmail(gomock.Any(), gomock.Eq(invitee.Email)).
					Times(1).
					Return(invitee, nil)
				repo.EXPECT().
					AddMember(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.GroupMember{}, domain.ErrForbidden)
			},
			checkResponse: func(m domain.GroupMember, err error) {
				require.Empty(t, m)
				require.EqualError(t, err, domain.ErrForbidden.Error())
			},
		},
		{
			name:  "AlreadyMember",
			email: invitee.Email,
			buildStubs: func(repo *MockRepo, userRepo *MockUserRepo) {
				userRepo.EXPECT().
					GetByEmail(gomock.Any(), gomock.Eq(invitee.Email)).
					Times(1).
					Return(invitee, nil)
				repo.EXPECT().
					AddMember(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.GroupMember{}, domain.ErrAlreadyMember)
			},
			checkResponse: func(m domain.GroupMember, err error) {
				require.Empty(t, m)
				require.EqualError(t, err, domain.ErrAlreadyMember.Error())
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			userRepo := NewMockUserRepo(ctrl)
			tc.buildStubs(repo, userRepo)

			service := New(repo, userRepo)

			m, err := service.AddMemberByEmail(context.Background(), accountID, actingUserID, tc.email)
			tc.checkResponse(m, err)
		})
	}
}

func TestChangeRole(t *testing.T) {
	accountID := int64(10)
	actingUserID := int64(1)
	targetUserID := int64(2)

	promoted := domain.GroupMember{
		AccountID: accountID,
		UserID:    targetUserID,
		Role:      domain.RoleOwner,
	}

	testCases := []struct {
		name          string
		newRole       domain.Role
		buildStubs    func(repo *MockRepo)
		checkResponse func(m domain.GroupMember, err error)
	}{
		{
			name:    "OK",
			newRole: domain.RoleOwner,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					ChangeRole(gomock.Any(), gomock.Eq(accountID), gomock.Eq(actingUserID),
						gomock.Eq(targetUserID), gomock.Eq(domain.RoleOwner)).
					Times(1).
					Return(promoted, nil)
			},
			checkResponse: func(m domain.GroupMember, err error) {
				require.NoError(t, err)
				require.Equal(t, promoted, m)
			},
		},
		{
			name:    "LastOwnerProtected",
			newRole: domain.RoleMember,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					ChangeRole(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.GroupMember{}, domain.ErrLastOwnerProtected)
			},
			checkResponse: func(m domain.GroupMember, err error) {
				require.Empty(t, m)
				require.EqualError(t, err, domain.ErrLastOwnerProtected.Error())
			},
		},
		{
			name:    "NoOpRoleChange",
			newRole: domain.RoleMember,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					ChangeRole(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.GroupMember{}, domain.ErrNoOpRoleChange)
			},
			checkResponse: func(m domain.GroupMember, err error) {
				require.Empty(t, m)
				require.EqualError(t, err, domain.ErrNoOpRoleChange.Error())
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			userRepo := NewMockUserRepo(ctrl)
			tc.buildStubs(repo)

			service := New(repo, userRepo)

			m, err := service.ChangeRole(context.Background(), accountID, actingUserID, targetUserID, tc.newRole)
			tc.checkResponse(m, err)
		})
	}
}

func TestRemoveMember(t *testing.T) {
	accountID := int64(10)
	actingUserID := int64(1)
	targetUserID := int64(2)

	testCases := []struct {
		name       string
		buildStubs func(repo *MockRepo)
		wantError  error
	}{
		{
			name: "OK",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					RemoveMember(gomock.Any(), gomock.Eq(accountID), gomock.Eq(actingUserID), gomock.Eq(targetUserID)).
					Times(1).
					Return(nil)
			},
		},
		{
			name: "LastOwnerProtected",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					RemoveMember(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.ErrLastOwnerProtected)
			},
			wantError: domain.ErrLastOwnerProtected,
		},
		{
			name: "RepoError",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().
					RemoveMember(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(1).
					Return(errorspkg.ErrInternal)
			},
			wantError: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := NewMockRepo(ctrl)
			userRepo := NewMockUserRepo(ctrl)
			tc.buildStubs(repo)

			service := New(repo, userRepo)

			err := service.RemoveMember(context.Background(), accountID, actingUserID, targetUserID)
			if tc.wantError != nil {
				require.EqualError(t, err, tc.wantError.Error())
				return
			}

			require.NoError(t, err)
		})
	}
}
