package identity

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/testutil"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/authtoken"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/types"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: testSecret, TokenTTLHours: 1}}
	return NewService(cfg, log, db, audit.NewService(log, db)), db
}

func registerReq(username string) *RegisterRequest {
	return &RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct horse battery",
		FullName: "Test Person",
	}
}

func auditCount(t *testing.T, db *gorm.DB, action types.AuditAction) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func TestRegister(t *testing.T) {
	svc, db := newTestService(t)

	user, err := svc.Register(context.Background(), registerReq("alice"), nil)
	require.NoError(t, err)

	assert.Equal(t, types.RoleMember, user.Role)
	assert.False(t, user.IsStaff)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionRegister))
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *RegisterRequest
	}{
		{"missing username", &RegisterRequest{Email: "a@example.com", Password: "longenough"}},
		{"bad email", &RegisterRequest{Username: "bob", Email: "not-an-email", Password: "longenough"}},
		{"short password", &RegisterRequest{Username: "bob", Email: "b@example.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req, nil)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "want validation error, got %v", err)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("alice"), nil)
	require.NoError(t, err)

	dup := registerReq("alice")
	dup.Email = "other@example.com"
	_, err = svc.Register(ctx, dup, nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation), "want validation error, got %v", err)
}

func TestCreateStaff(t *testing.T) {
	svc, db := newTestService(t)

	staff, err := svc.CreateStaff(context.Background(), registerReq("frontdesk"), "admin-1", nil)
	require.NoError(t, err)

	assert.True(t, staff.IsStaff)
	assert.Equal(t, types.RoleStaff, staff.Role)
	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionUserCreated))
}

func TestAuthenticate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerReq("alice"), nil)
	require.NoError(t, err)

	token, got, err := svc.Authenticate(ctx, "alice", "correct horse battery", nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := authtoken.Parse(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, types.RoleMember, claims.Role)
	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionLogin))
}

func TestAuthenticate_Failures(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("alice"), nil)
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "alice", "wrong password", nil)
	assert.Error(t, err)
	_, _, err = svc.Authenticate(ctx, "nobody", "whatever", nil)
	assert.Error(t, err)

	// Disabled accounts cannot log in even with the right password.
	var user models.User
	require.NoError(t, db.First(&user, "username = ?", "alice").Error)
	require.NoError(t, svc.SetActive(ctx, user.ID, false, "admin-1", nil))
	_, _, err = svc.Authenticate(ctx, "alice", "correct horse battery", nil)
	assert.Error(t, err)

	assert.EqualValues(t, 3, auditCount(t, db, types.AuditActionLoginFailed))
}

func TestSetFlags_DerivesRole(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerReq("alice"), nil)
	require.NoError(t, err)

	promoted, err := svc.SetFlags(ctx, user.ID, false, true, "admin-1", nil)
	require.NoError(t, err)
	assert.Equal(t, types.RoleStaff, promoted.Role)
	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionRoleChanged))

	// Superuser wins over staff.
	promoted, err = svc.SetFlags(ctx, user.ID, true, true, "admin-1", nil)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, promoted.Role)

	// Same flags again: no role change, no extra audit entry.
	_, err = svc.SetFlags(ctx, user.ID, true, true, "admin-1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, auditCount(t, db, types.AuditActionRoleChanged))
}

func TestSyncRole_RepairsHandEditedRow(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerReq("alice"), nil)
	require.NoError(t, err)

	// Flags edited directly in the database, role left stale.
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", user.ID).Update("is_staff", true).Error)

	fixed, err := svc.SyncRole(ctx, user.ID, "admin-1", nil)
	require.NoError(t, err)
	assert.Equal(t, types.RoleStaff, fixed.Role)
}

func TestIssueKioskPIN(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	pin, err := svc.IssueKioskPIN(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), pin)

	found, err := svc.FindByKioskPIN(ctx, pin)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Re-issuing replaces the code.
	next, err := svc.IssueKioskPIN(ctx, user.ID, nil)
	require.NoError(t, err)
	_, err = svc.FindByKioskPIN(ctx, pin)
	if pin != next {
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	}
}

func TestFindByKioskPIN_InactiveUserHidden(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db, testutil.WithKioskPIN("123456"), testutil.WithInactive())
	_ = user

	_, err := svc.FindByKioskPIN(ctx, "123456")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.FindByKioskPIN(ctx, "")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
