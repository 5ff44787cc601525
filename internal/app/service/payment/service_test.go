package payment

import (
	"context"
	"errors"
	"regexp"
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
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/types"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop().Sugar()
	cfg := &config.Config{Payments: config.PaymentsConfig{MaxDiscountPercent: 50}}
	auditSvc := audit.NewService(log, db)
	catalogSvc := catalog.NewService(log, db, testutil.SetupTestCache(t), auditSvc)
	memberSvc := membership.NewService(log, db, auditSvc, catalogSvc)
	return NewService(cfg, log, db, auditSvc, memberSvc, catalogSvc), db
}

// pendingSetup creates a user with a pending membership on a 150000 centavo,
// 30 day plan.
func pendingSetup(t *testing.T, db *gorm.DB) (*models.User, *models.Membership) {
	t.Helper()
	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db, testutil.WithPlanPrice(150000), testutil.WithPlanDuration(30))
	m := testutil.TestMembership(t, db, user.ID, plan.ID)
	return user, m
}

func auditCount(t *testing.T, db *gorm.DB, action types.AuditAction) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditLogEntry{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func TestCreate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user, m := pendingSetup(t, db)

	p, err := svc.Create(ctx, user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, types.PaymentStatusPending, p.Status)
	assert.Regexp(t, regexp.MustCompile(`^PAY-\d{8}-[A-Z2-9]{6}$`), p.ReferenceNo)
	assert.Nil(t, p.ApprovedBy)
	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionPaymentReceived))

	var entry models.AuditLogEntry
	require.NoError(t, db.Where("action = ?", types.AuditActionPaymentReceived).First(&entry).Error)
	assert.Equal(t, types.SeverityInfo, entry.Severity)
}

func TestCreate_Validation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user, m := pendingSetup(t, db)

	tests := []struct {
		name string
		req  *CreateRequest
	}{
		{"missing membership", &CreateRequest{AmountCentavos: 1000, Method: types.PaymentMethodCash}},
		{"zero amount", &CreateRequest{MembershipID: m.ID, Method: types.PaymentMethodCash}},
		{"bad method", &CreateRequest{MembershipID: m.ID, AmountCentavos: 1000, Method: "card"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, user.ID, tt.req, nil)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "want validation error, got %v", err)
		})
	}
}

func TestCreateOnBehalf_ResolvesMembershipOwner(t *testing.T) {
	svc, db := newTestService(t)
	user, m := pendingSetup(t, db)

	p, err := svc.CreateOnBehalf(context.Background(), &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
}

func TestCreate_WrongOwnerRejected(t *testing.T) {
	svc, db := newTestService(t)
	_, m := pendingSetup(t, db)
	other := testutil.TestUser(t, db)

	_, err := svc.Create(context.Background(), other.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestCreate_DiscountPolicy(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		amount   int64
		wantErr  bool
		severity types.Severity
	}{
		{"exact price", 150000, false, types.SeverityInfo},
		{"small discount flagged", 120000, false, types.SeverityWarning},
		{"at the cap", 75000, false, types.SeverityWarning},
		{"beyond the cap", 70000, true, ""},
		{"overpayment flagged", 160000, false, types.SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, m := pendingSetup(t, db)
			p, err := svc.Create(ctx, user.ID, &CreateRequest{
				MembershipID:   m.ID,
				AmountCentavos: tt.amount,
				Method:         types.PaymentMethodQRTransfer,
			}, nil)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperr.ErrValidation), "want validation error, got %v", err)
				return
			}
			require.NoError(t, err)

			var entry models.AuditLogEntry
			require.NoError(t, db.Where("action = ? AND entity_id = ?", types.AuditActionPaymentReceived, p.ID).First(&entry).Error)
			assert.Equal(t, tt.severity, entry.Severity)
		})
	}
}

func TestCreate_NonPendingMembershipRejected(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.TestUser(t, db)
	plan := testutil.TestPlan(t, db)
	m := testutil.TestMembership(t, db, user.ID, plan.ID,
		testutil.WithMembershipStatus(types.MembershipStatusActive),
		testutil.WithMembershipDates(time.Now(), time.Now().AddDate(0, 0, 30)))

	_, err := svc.Create(ctx, user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: plan.PriceCentavos,
		Method:         types.PaymentMethodCash,
	}, nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestApprove_ActivatesMembershipAtomically(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user, m := pendingSetup(t, db)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))

	p, err := svc.Create(ctx, user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	require.NoError(t, err)

	confirmed, err := svc.Approve(ctx, p.ID, staff.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ApprovedBy)
	assert.Equal(t, staff.ID, *confirmed.ApprovedBy)
	assert.NotNil(t, confirmed.ApprovedAt)

	var gotM models.Membership
	require.NoError(t, db.First(&gotM, "id = ?", m.ID).Error)
	assert.Equal(t, types.MembershipStatusActive, gotM.Status)
	require.NotNil(t, gotM.StartDate)
	require.NotNil(t, gotM.EndDate)
	assert.WithinDuration(t, gotM.StartDate.AddDate(0, 0, 30), *gotM.EndDate, time.Second)

	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionPaymentConfirmed))
	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionMembershipActivated))
}

func TestApprove_TerminalMembershipRollsBack(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user, m := pendingSetup(t, db)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))

	p, err := svc.Create(ctx, user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	require.NoError(t, err)

	// Membership cancelled out from under the review queue.
	require.NoError(t, db.Model(&models.Membership{}).
		Where("id = ?", m.ID).
		Update("status", types.MembershipStatusCancelled).Error)

	_, err = svc.Approve(ctx, p.ID, staff.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidStateTransition), "want invalid transition, got %v", err)

	// The payment must still be pending: the whole approval rolled back.
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusPending, got.Status)
	assert.Nil(t, got.ApprovedBy)
	assert.EqualValues(t, 0, auditCount(t, db, types.AuditActionPaymentConfirmed))
}

func TestApprove_TerminalPaymentRejected(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user, m := pendingSetup(t, db)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))

	p, err := svc.Create(ctx, user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, p.ID, staff.ID, nil)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, p.ID, staff.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidStateTransition))
	_, err = svc.Reject(ctx, p.ID, staff.ID, "too late", nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidStateTransition))
}

func TestReject_CancelsMembership(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	user, m := pendingSetup(t, db)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))

	p, err := svc.Create(ctx, user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodQRTransfer,
	}, nil)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, p.ID, staff.ID, "reference not found in bank statement", nil)
	require.NoError(t, err)
	assert.Equal(t, types.PaymentStatusRejected, rejected.Status)
	assert.Equal(t, "reference not found in bank statement", rejected.RejectionReason)

	var gotM models.Membership
	require.NoError(t, db.First(&gotM, "id = ?", m.ID).Error)
	assert.Equal(t, types.MembershipStatusCancelled, gotM.Status)

	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionPaymentRejected))
}

func TestReject_ReasonRequired(t *testing.T) {
	svc, db := newTestService(t)
	user, m := pendingSetup(t, db)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))

	p, err := svc.Create(context.Background(), user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), p.ID, staff.ID, "", nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestScanPayments(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		user, m := pendingSetup(t, db)
		_, err := svc.Create(ctx, user.ID, &CreateRequest{
			MembershipID:   m.ID,
			AmountCentavos: 150000,
			Method:         types.PaymentMethodCash,
		}, nil)
		require.NoError(t, err)
	}

	resp, err := svc.ScanPayments(ctx, &ScanPaymentsRequest{
		Filters: []*types.CommonFilter{
			{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{string(types.PaymentStatusPending)}},
		},
		Size:   2,
		SortBy: "payment_date",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, resp.Total)
	assert.Len(t, resp.Items, 2)
}

func TestWalkIn(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))
	pass := testutil.TestPass(t, db)

	w, err := svc.CreateWalkIn(ctx, &WalkInRequest{
		PassID:       pass.ID,
		CustomerName: "Dana Cruz",
		MobileNo:     "09171234567",
		Method:       types.PaymentMethodCash,
	}, staff.ID, nil)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^WLK-\d{8}-[A-Z2-9]{6}$`), w.ReferenceNo)
	assert.Equal(t, pass.PriceCentavos, w.AmountCentavos)
	assert.Equal(t, staff.ID, w.ProcessedBy)
	assert.EqualValues(t, 1, auditCount(t, db, types.AuditActionWalkInSale))

	// No membership appears from a walk-in sale.
	var n int64
	require.NoError(t, db.Model(&models.Membership{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestWalkIn_AnonymousCustomerAllowed(t *testing.T) {
	svc, db := newTestService(t)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))
	pass := testutil.TestPass(t, db)

	w, err := svc.CreateWalkIn(context.Background(), &WalkInRequest{
		PassID: pass.ID,
		Method: types.PaymentMethodCash,
	}, staff.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, w.CustomerName)
	assert.Equal(t, pass.PriceCentavos, w.AmountCentavos)

	var entry models.AuditLogEntry
	require.NoError(t, db.Where("action = ?", types.AuditActionWalkInSale).First(&entry).Error)
	assert.Contains(t, entry.Description, "Anonymous")
}

func TestWalkIn_ArchivedPassRejected(t *testing.T) {
	svc, db := newTestService(t)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))
	pass := testutil.TestPass(t, db, testutil.WithPassArchived())

	_, err := svc.CreateWalkIn(context.Background(), &WalkInRequest{
		PassID:       pass.ID,
		CustomerName: "Dana Cruz",
		Method:       types.PaymentMethodCash,
	}, staff.ID, nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestReportDaily(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user, m := pendingSetup(t, db)
	staff := testutil.TestUser(t, db, testutil.WithRole(types.RoleStaff))

	p, err := svc.Create(ctx, user.ID, &CreateRequest{
		MembershipID:   m.ID,
		AmountCentavos: 150000,
		Method:         types.PaymentMethodCash,
	}, nil)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, p.ID, staff.ID, nil)
	require.NoError(t, err)

	pass := testutil.TestPass(t, db)
	_, err = svc.CreateWalkIn(ctx, &WalkInRequest{
		PassID:       pass.ID,
		CustomerName: "Dana Cruz",
		Method:       types.PaymentMethodCash,
	}, staff.ID, nil)
	require.NoError(t, err)

	report, err := svc.ReportDaily(ctx, time.Now())
	require.NoError(t, err)

	assert.EqualValues(t, 1, report.ActiveMembers)
	assert.EqualValues(t, 1, report.PaymentsConfirmed)
	assert.EqualValues(t, 0, report.PaymentsPending)
	assert.EqualValues(t, 150000, report.MembershipSalesTotal)
	assert.EqualValues(t, 1, report.WalkInsSold)
	assert.EqualValues(t, 10000, report.WalkInSalesTotal)
	assert.EqualValues(t, 160000, report.TotalSalesCentavos)
}
