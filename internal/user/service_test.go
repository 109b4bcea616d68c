package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kittyapp/kitty/internal/user"
)

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    user.CreateParams
		setupMock func(m *user.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: user.CreateParams{
				Username:     "alice",
				Email:        "alice@example.com",
				FirstName:    "Alice",
				PasswordHash: "$2a$10$hash",
			},
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().
					UserByEmail(gomock.Any(), "alice@example.com").
					Return(nil, user.ErrNotFound)
				m.EXPECT().
					ProfileSlugExists(gomock.Any(), "alice").
					Return(false, nil)
				m.EXPECT().
					CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, u *user.User, p *user.Profile) error {
						u.ID = uuid.New()
						assert.Equal(t, "alice", p.Slug)
						return nil
					})
			},
		},
		{
			name: "EmailTaken",
			params: user.CreateParams{
				Username: "alice",
				Email:    "alice@example.com",
			},
			setupMock: func(m *user.MockRepository) {
				m.EXPECT().
					UserByEmail(gomock.Any(), "alice@example.com").
					Return(&user.User{ID: uuid.New(), Email: "alice@example.com"}, nil)
			},
			wantErr: user.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := user.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := user.NewService(repo)
			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.NotEmpty(t, got.ID)
		})
	}
}

func TestService_Provision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		ProfileSlugExists(gomock.Any(), gomock.Any()).
		Return(false, nil)
	repo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *user.User, p *user.Profile) error {
			u.ID = uuid.New()
			return nil
		})

	svc := user.NewService(repo)

	got, err := svc.Provision(context.Background(), "bob@example.com", "Bob")
	require.NoError(t, err)

	// Email doubles as the username; no credential is set.
	assert.Equal(t, "bob@example.com", got.Username)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, "Bob", got.FirstName)
	assert.Empty(t, got.PasswordHash)
}

func TestService_Provision_SlugCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)

	var slugs []string

	gomock.InOrder(
		repo.EXPECT().
			ProfileSlugExists(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, s string) (bool, error) {
				slugs = append(slugs, s)
				return true, nil
			}),
		repo.EXPECT().
			ProfileSlugExists(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, s string) (bool, error) {
				slugs = append(slugs, s)
				return false, nil
			}),
	)
	repo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil)

	svc := user.NewService(repo)

	_, err := svc.Provision(context.Background(), "bob@example.com", "")
	require.NoError(t, err)

	require.Len(t, slugs, 2)
	assert.NotEqual(t, slugs[0], slugs[1])
	assert.Contains(t, slugs[1], slugs[0]+"-")
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	id := uuid.New()
	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		UserByID(gomock.Any(), id).
		Return(&user.User{ID: id, Username: "alice", Email: "alice@example.com"}, nil)
	repo.EXPECT().
		UpdateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *user.User) error {
			assert.Equal(t, "Alícia", u.FirstName)
			assert.Equal(t, "alice", u.Username)
			assert.Equal(t, "alice@example.com", u.Email)
			return nil
		})

	svc := user.NewService(repo)

	first := "Alícia"

	got, err := svc.Update(context.Background(), id, user.UpdateParams{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Alícia", got.FirstName)
}

func TestService_Update_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		UserByID(gomock.Any(), gomock.Any()).
		Return(nil, user.ErrNotFound)

	svc := user.NewService(repo)

	_, err := svc.Update(context.Background(), uuid.New(), user.UpdateParams{})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestService_Create_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := user.NewMockRepository(ctrl)
	repo.EXPECT().
		UserByEmail(gomock.Any(), gomock.Any()).
		Return(nil, user.ErrNotFound)
	repo.EXPECT().
		ProfileSlugExists(gomock.Any(), gomock.Any()).
		Return(false, nil)
	repo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("db error"))

	svc := user.NewService(repo)

	_, err := svc.Create(context.Background(), user.CreateParams{
		Username: "alice",
		Email:    "alice@example.com",
	})
	assert.Error(t, err)
}
