package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/testutil"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/types"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop().Sugar()
	auditSvc := audit.NewService(log, db)
	catalogSvc := catalog.NewService(log, db, testutil.SetupTestCache(t), auditSvc)
	memberSvc := membership.NewService(log, db, auditSvc, catalogSvc)
	return NewService(log, db, auditSvc, memberSvc), db
}

// activeMember creates a user with a membership valid right now.
func activeMember(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestMembership(t, db, user.ID, plan.ID,
		testutil.WithMembershipStatus(types.MembershipStatusActive),
		testutil.WithMembershipDates(time.Now().AddDate(0, 0, -5), time.Now().AddDate(0, 0, 25)))
	return user
}

func TestCheckIn(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := activeMember(t, db)

	a, err := svc.CheckIn(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.True(t, a.Open())
	assert.Nil(t, a.DurationMinutes)

	var n int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).
		Where("action = ?", types.AuditActionCheckIn).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCheckIn_RequiresValidMembership(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	noMembership := testutil.TestUser(t, db)
	_, err := svc.CheckIn(ctx, noMembership.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrMembershipRequired), "want membership required, got %v", err)

	// Pending membership does not grant entry.
	pendingUser := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	testutil.TestMembership(t, db, pendingUser.ID, plan.ID)
	_, err = svc.CheckIn(ctx, pendingUser.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrMembershipRequired))

	// Neither does an active membership past its end date.
	lapsedUser := testutil.TestUser(t, db)
	testutil.TestMembership(t, db, lapsedUser.ID, plan.ID,
		testutil.WithMembershipStatus(types.MembershipStatusActive),
		testutil.WithMembershipDates(time.Now().AddDate(0, 0, -40), time.Now().AddDate(0, 0, -10)))
	_, err = svc.CheckIn(ctx, lapsedUser.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrMembershipRequired))
}

func TestCheckIn_DoubleCheckInRejected(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := activeMember(t, db)

	_, err := svc.CheckIn(ctx, user.ID, nil)
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, user.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrAlreadyCheckedIn), "want already checked in, got %v", err)
}

func TestCheckOut_RecordsDuration(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user := activeMember(t, db)

	a, err := svc.CheckIn(ctx, user.ID, nil)
	require.NoError(t, err)

	// Backdate the check-in to a 90 minute visit.
	checkIn := time.Now().Add(-90 * time.Minute)
	require.NoError(t, db.Model(&models.Attendance{}).
		Where("id = ?", a.ID).Update("check_in", checkIn).Error)

	closed, err := svc.CheckOut(ctx, user.ID, nil)
	require.NoError(t, err)
	assert.False(t, closed.Open())
	require.NotNil(t, closed.DurationMinutes)
	assert.Equal(t, 90, *closed.DurationMinutes)

	// And the user can start a fresh session afterwards.
	_, err = svc.CheckIn(ctx, user.ID, nil)
	assert.NoError(t, err)
}

func TestCheckOut_NoOpenSession(t *testing.T) {
	svc, db := newTestService(t)
	user := activeMember(t, db)

	_, err := svc.CheckOut(context.Background(), user.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrNoOpenSession), "want no open session, got %v", err)
}

func TestOpenSessionViews(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	first := activeMember(t, db)
	second := activeMember(t, db)

	got, err := svc.OpenSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.CheckIn(ctx, first.ID, nil)
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, second.ID, nil)
	require.NoError(t, err)

	got, err = svc.OpenSession(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.UserID)

	open, err := svc.ListOpenSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	_, err = svc.CheckOut(ctx, first.ID, nil)
	require.NoError(t, err)

	open, err = svc.ListOpenSessions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, second.ID, open[0].UserID)

	history, err := svc.ListForUser(ctx, first.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
