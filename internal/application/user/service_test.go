package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/support-role-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	users, _ := args.Get(0).([]domain.User)
	return users, args.String(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockGuard struct{ mock.Mock }

func (m *mockGuard) SetRole(ctx context.Context, userID, requested string) (*domain.Decision, error) {
	args := m.Called(ctx, userID, requested)
	if d, _ := args.Get(0).(*domain.Decision); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGuard) OnRegister(ctx context.Context, userID string) (*domain.Decision, error) {
	args := m.Called(ctx, userID)
	if d, _ := args.Get(0).(*domain.Decision); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGuard) OnProfileUpdate(ctx context.Context, userID string) (*domain.Decision, error) {
	args := m.Called(ctx, userID)
	if d, _ := args.Get(0).(*domain.Decision); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGuard) OnPasswordReset(ctx context.Context, userID string) (*domain.Decision, error) {
	args := m.Called(ctx, userID)
	if d, _ := args.Get(0).(*domain.Decision); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGuard) VerifyEmail(ctx context.Context, actorID, login, suppliedHash string) (string, error) {
	args := m.Called(ctx, actorID, login, suppliedHash)
	return args.String(0), args.Error(1)
}

// --- Register ---

func TestRegister_UsernameTaken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u1"}, nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: &mockGuard{}})
	_, _, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Email: "alice@a8c.com", Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_EmailTaken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@a8c.com").Return(&domain.User{UserID: "u2"}, nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: &mockGuard{}})
	_, _, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Email: "alice@a8c.com", Password: "password123",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegister_InvalidRole(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrNotFound)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: &mockGuard{}})
	_, _, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Email: "alice@a8c.com", Password: "password123", Role: "superuser",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRegister_HappyPath_DefaultsRole(t *testing.T) {
	us := &mockUserStore{}
	g := &mockGuard{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	var created *domain.User
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	g.On("OnRegister", mock.Anything, mock.Anything).Return(nil, nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: g})
	u, decision, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Email: "alice@example.com", Password: "password123",
		FirstName: "Alice", LastName: "Smith",
	})

	require.NoError(t, err)
	assert.Nil(t, decision)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Equal(t, 1, u.Enable)
	assert.NotEmpty(t, u.UserID)
	require.NotNil(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("password123")))
	g.AssertCalled(t, "OnRegister", mock.Anything, u.UserID)
}

// A registration that asks for the support role comes back with whatever
// role the guard actually granted.
func TestRegister_SupportRequest_ReconciledWithDecision(t *testing.T) {
	us := &mockUserStore{}
	g := &mockGuard{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@a8c.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	g.On("OnRegister", mock.Anything, mock.Anything).Return(&domain.Decision{
		RequestedRole: domain.RoleSupport,
		FinalRole:     domain.RoleSupportInactive,
		Outcome:       domain.OutcomeMadeSupport,
		ChallengeSent: true,
	}, nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: g})
	u, decision, err := svc.Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Email: "alice@a8c.com", Password: "password123", Role: domain.RoleSupport,
	})

	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, domain.RoleSupportInactive, u.Role)
	assert.Equal(t, domain.OutcomeMadeSupport, decision.Outcome)
}

// --- Update ---

func TestUpdate_FieldsOnly(t *testing.T) {
	us := &mockUserStore{}
	g := &mockGuard{}
	first := "Alicia"
	us.On("Update", mock.Anything, "u1", map[string]interface{}{fieldFirstName: "Alicia"}).Return(nil)
	g.On("OnProfileUpdate", mock.Anything, "u1").Return(nil, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", FirstName: "Alicia"}, nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: g})
	u, decision, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{FirstName: &first})

	require.NoError(t, err)
	assert.Nil(t, decision)
	assert.Equal(t, "Alicia", u.FirstName)
	g.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_RoleChange_GoesThroughGuard(t *testing.T) {
	us := &mockUserStore{}
	g := &mockGuard{}
	role := domain.RoleSupport
	g.On("SetRole", mock.Anything, "u1", domain.RoleSupport).Return(&domain.Decision{
		FinalRole: domain.RoleUser,
		Outcome:   domain.OutcomeBlockUpgradeVerifyEmail,
	}, nil)
	g.On("OnProfileUpdate", mock.Anything, "u1").Return(nil, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleUser}, nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: g})
	_, decision, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Role: &role})

	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, domain.OutcomeBlockUpgradeVerifyEmail, decision.Outcome)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_InvalidRole(t *testing.T) {
	role := "superuser"
	svc := NewService(ServiceDeps{UserRepo: &mockUserStore{}, Guard: &mockGuard{}})
	_, _, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Role: &role})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// Changing the email demotes a support account; the drift decision wins over
// the role decision from the same request.
func TestUpdate_EmailChange_DriftDecisionWins(t *testing.T) {
	us := &mockUserStore{}
	g := &mockGuard{}
	email := "alice.new@a8c.com"
	role := domain.RoleSupport
	us.On("Update", mock.Anything, "u1", map[string]interface{}{fieldEmail: email}).Return(nil)
	g.On("SetRole", mock.Anything, "u1", domain.RoleSupport).Return(&domain.Decision{
		FinalRole: domain.RoleSupport,
	}, nil)
	g.On("OnProfileUpdate", mock.Anything, "u1").Return(&domain.Decision{
		FinalRole: domain.RoleSupportInactive,
		Outcome:   domain.OutcomeDowngradedEmailChanged,
	}, nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleSupportInactive, Email: email}, nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: g})
	_, decision, err := svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Email: &email, Role: &role})

	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, domain.OutcomeDowngradedEmailChanged, decision.Outcome)
	assert.Equal(t, domain.RoleSupportInactive, decision.FinalRole)
}

// --- List / Delete ---

func TestList_DefaultsLimit(t *testing.T) {
	us := &mockUserStore{}
	us.On("ScanPage", mock.Anything, int32(50), "").Return([]domain.User{{UserID: "u1"}}, "cursor-1", nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: &mockGuard{}})
	users, next, err := svc.List(context.Background(), 0, "")

	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "cursor-1", next)
}

func TestDelete(t *testing.T) {
	us := &mockUserStore{}
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)

	svc := NewService(ServiceDeps{UserRepo: us, Guard: &mockGuard{}})
	require.NoError(t, svc.Delete(context.Background(), "u1"))
	us.AssertExpectations(t)
}
