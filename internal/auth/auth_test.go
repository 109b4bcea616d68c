package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kittyapp/kitty/internal/user"
)

// In-memory Directory keyed by email.
type fakeDirectory struct {
	users map[string]*user.User
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[string]*user.User)}
}

func (d *fakeDirectory) Create(_ context.Context, params user.CreateParams) (*user.User, error) {
	if _, ok := d.users[params.Email]; ok {
		return nil, user.ErrEmailTaken
	}

	u := &user.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		PasswordHash: params.PasswordHash,
	}
	d.users[params.Email] = u

	return u, nil
}

func (d *fakeDirectory) ByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := d.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}

	return u, nil
}

func (d *fakeDirectory) SetPasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	for _, u := range d.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}

	return user.ErrNotFound
}

func TestAuthenticator_RegisterAndAuthenticate(t *testing.T) {
	dir := newFakeDirectory()
	a := NewAuthenticator(dir)

	u, err := a.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", u.PasswordHash, "password must be stored hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))

	got, err := a.Authenticate(context.Background(), "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = a.Authenticate(context.Background(), "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(context.Background(), "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticator_WeakPassword(t *testing.T) {
	a := NewAuthenticator(newFakeDirectory())

	_, err := a.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestAuthenticator_ProvisionedAccountCannotLogIn(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["bob@example.com"] = &user.User{
		ID:       uuid.New(),
		Username: "bob@example.com",
		Email:    "bob@example.com",
		// No password hash: account provisioned during member resolution.
	}

	a := NewAuthenticator(dir)

	_, err := a.Authenticate(context.Background(), "bob@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(context.Background(), "bob@example.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticator_ClaimProvisionedAccount(t *testing.T) {
	dir := newFakeDirectory()
	dir.users["bob@example.com"] = &user.User{
		ID:       uuid.New(),
		Username: "bob@example.com",
		Email:    "bob@example.com",
	}

	a := NewAuthenticator(dir)

	_, err := a.Claim(context.Background(), "bob@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	u, err := a.Claim(context.Background(), "bob@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, u.PasswordHash)

	got, err := a.Authenticate(context.Background(), "bob@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// A claimed account must not be claimable again.
	_, err = a.Claim(context.Background(), "bob@example.com", "another pass")
	assert.ErrorIs(t, err, ErrAccountClaimed)

	_, err = a.Claim(context.Background(), "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestAuthenticator_ChangePassword(t *testing.T) {
	dir := newFakeDirectory()
	a := NewAuthenticator(dir)

	u, err := a.Register(context.Background(), RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, a.ChangePassword(context.Background(), u.ID, "short"), ErrWeakPassword)

	require.NoError(t, a.ChangePassword(context.Background(), u.ID, "battery staple"))

	_, err = a.Authenticate(context.Background(), "alice@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(context.Background(), "alice@example.com", "battery staple")
	assert.NoError(t, err)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	u := &user.User{ID: uuid.New(), Username: "alice"}

	token, err := m.Generate(u)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute)

	token, err := m.Generate(&user.User{ID: uuid.New(), Username: "alice"})
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsForeignSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).
		Generate(&user.User{ID: uuid.New(), Username: "alice"})
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
