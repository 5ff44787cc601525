package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/config"
	"github.com/rhosegym/gymcore/pkg/metrics"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

const referenceRetries = 5

// Service records member payments and runs the manual review flow.
// Approval and rejection commit the payment row together with the
// membership side effect in one transaction.
type Service struct {
	cfg        *config.Config
	log        *zap.SugaredLogger
	db         *gorm.DB
	audit      *audit.Service
	membership *membership.Service
	catalog    *catalog.Service
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB, auditSvc *audit.Service, memberSvc *membership.Service, catalogSvc *catalog.Service) *Service {
	return &Service{cfg: cfg, log: log, db: db, audit: auditSvc, membership: memberSvc, catalog: catalogSvc}
}

type CreateRequest struct {
	MembershipID   string              `json:"membership_id"`
	AmountCentavos int64               `json:"amount_centavos"`
	Method         types.PaymentMethod `json:"method"`
	Notes          string              `json:"notes"`
}

// Create records a pending payment against the member's pending membership.
// The amount may undercut the plan price up to the configured discount cap;
// any mismatch is flagged in the audit trail for the reviewer.
func (s *Service) Create(ctx context.Context, userID string, req *CreateRequest, meta *audit.RequestMeta) (*models.Payment, error) {
	if req == nil || req.MembershipID == "" {
		return nil, fmt.Errorf("%w: membership_id is required", apperr.ErrValidation)
	}
	if !req.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", apperr.ErrValidation, req.Method)
	}
	if req.AmountCentavos <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", apperr.ErrValidation, req.AmountCentavos)
	}

	m, err := s.membership.Get(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}
	if m.UserID != userID {
		return nil, fmt.Errorf("%w: membership %s does not belong to user", apperr.ErrValidation, m.ID)
	}
	if m.Status != types.MembershipStatusPending {
		return nil, fmt.Errorf("%w: membership %s is %s, only pending memberships accept payments", apperr.ErrValidation, m.ID, m.Status)
	}
	if m.Plan == nil {
		return nil, fmt.Errorf("membership %s has no plan", m.ID)
	}

	mismatch, severity, err := s.checkAmount(req.AmountCentavos, m.Plan.PriceCentavos)
	if err != nil {
		return nil, err
	}

	p := &models.Payment{
		ID:             tool.GenerateUUIDV7(),
		UserID:         userID,
		MembershipID:   m.ID,
		AmountCentavos: req.AmountCentavos,
		Method:         req.Method,
		Status:         types.PaymentStatusPending,
		Notes:          req.Notes,
		PaymentDate:    time.Now(),
	}
	if err := s.createWithReference(ctx, p); err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("payment %s received for membership %s", p.ReferenceNo, m.ID)
	if mismatch {
		desc = fmt.Sprintf("%s, amount %d differs from plan price %d", desc, req.AmountCentavos, m.Plan.PriceCentavos)
	}
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPaymentReceived,
		ActorID:     &userID,
		Description: desc,
		Severity:    severity,
		Meta:        meta,
		EntityName:  models.Payment{}.TableName(),
		EntityID:    p.ID,
		Extra: map[string]any{
			"reference_no":        p.ReferenceNo,
			"amount_centavos":     p.AmountCentavos,
			"plan_price_centavos": m.Plan.PriceCentavos,
			"method":              string(p.Method),
			"membership_id":       m.ID,
		},
	})
	return p, nil
}

// CreateOnBehalf records a desk-entered payment for the membership's owner.
// Staff operation; the resulting payment still goes through review.
func (s *Service) CreateOnBehalf(ctx context.Context, req *CreateRequest, meta *audit.RequestMeta) (*models.Payment, error) {
	if req == nil || req.MembershipID == "" {
		return nil, fmt.Errorf("%w: membership_id is required", apperr.ErrValidation)
	}
	m, err := s.membership.Get(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, m.UserID, req, meta)
}

// checkAmount enforces the discount cap: an amount below plan price is
// accepted up to payments.max_discount_percent and flagged, below that it
// is refused outright. Overpayment is accepted and flagged.
func (s *Service) checkAmount(amount, planPrice int64) (mismatch bool, severity types.Severity, err error) {
	if amount == planPrice {
		return false, types.SeverityInfo, nil
	}
	if amount < planPrice && planPrice > 0 {
		discount := (planPrice - amount) * 100 / planPrice
		if discount > int64(s.cfg.Payments.MaxDiscountPercent) {
			return false, "", fmt.Errorf("%w: amount %d is %d%% below plan price %d, cap is %d%%",
				apperr.ErrValidation, amount, discount, planPrice, s.cfg.Payments.MaxDiscountPercent)
		}
	}
	return true, types.SeverityWarning, nil
}

// createWithReference inserts with a fresh reference, retrying on
// duplicate-key up to referenceRetries.
func (s *Service) createWithReference(ctx context.Context, p *models.Payment) error {
	for i := 0; i < referenceRetries; i++ {
		p.ReferenceNo = tool.GenerateReference(types.ReferencePrefixPayment, p.PaymentDate)
		err := s.db.WithContext(ctx).Create(p).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		s.log.Warnw("payment reference collision, retrying", "reference_no", p.ReferenceNo, "attempt", i+1)
	}
	return fmt.Errorf("%w: could not generate a unique payment reference after %d attempts", apperr.ErrRetryExhausted, referenceRetries)
}

// Approve confirms a pending payment and activates its membership in the
// same transaction. If the membership cannot activate, the payment stays
// pending.
func (s *Service) Approve(ctx context.Context, paymentID, approverID string, meta *audit.RequestMeta) (*models.Payment, error) {
	now := time.Now()
	var p models.Payment
	var activated *models.Membership

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadPending(ctx, tx, paymentID, &p); err != nil {
			return err
		}
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, types.PaymentStatusPending).
			Updates(map[string]any{
				"status":      types.PaymentStatusConfirmed,
				"approved_by": approverID,
				"approved_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to confirm payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: payment %s changed state concurrently", apperr.ErrInvalidStateTransition, paymentID)
		}

		var err error
		activated, err = s.membership.ActivateTx(ctx, tx, p.MembershipID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.Status = types.PaymentStatusConfirmed
	p.ApprovedBy = &approverID
	p.ApprovedAt = &now

	metrics.IncBusinessEvent(metrics.EventPaymentConfirmed)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPaymentConfirmed,
		ActorID:     &approverID,
		Description: fmt.Sprintf("payment %s confirmed", p.ReferenceNo),
		Meta:        meta,
		EntityName:  models.Payment{}.TableName(),
		EntityID:    p.ID,
		Extra:       map[string]any{"reference_no": p.ReferenceNo, "membership_id": p.MembershipID},
	})
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionMembershipActivated,
		ActorID:     &approverID,
		Description: fmt.Sprintf("membership %s activated through payment %s", p.MembershipID, p.ReferenceNo),
		Meta:        meta,
		EntityName:  models.Membership{}.TableName(),
		EntityID:    p.MembershipID,
		Extra:       map[string]any{"start_date": activated.StartDate, "end_date": activated.EndDate},
	})
	return &p, nil
}

// Reject marks a pending payment rejected and cancels the membership it was
// paying for, atomically with the payment row.
func (s *Service) Reject(ctx context.Context, paymentID, reviewerID, reason string, meta *audit.RequestMeta) (*models.Payment, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", apperr.ErrValidation)
	}

	now := time.Now()
	var p models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadPending(ctx, tx, paymentID, &p); err != nil {
			return err
		}
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", paymentID, types.PaymentStatusPending).
			Updates(map[string]any{
				"status":           types.PaymentStatusRejected,
				"approved_by":      reviewerID,
				"approved_at":      now,
				"rejection_reason": reason,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reject payment: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: payment %s changed state concurrently", apperr.ErrInvalidStateTransition, paymentID)
		}
		return s.membership.CancelTx(ctx, tx, p.MembershipID)
	})
	if err != nil {
		return nil, err
	}

	p.Status = types.PaymentStatusRejected
	p.ApprovedBy = &reviewerID
	p.ApprovedAt = &now
	p.RejectionReason = reason

	metrics.IncBusinessEvent(metrics.EventPaymentRejected)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPaymentRejected,
		ActorID:     &reviewerID,
		Description: fmt.Sprintf("payment %s rejected: %s", p.ReferenceNo, reason),
		Severity:    types.SeverityWarning,
		Meta:        meta,
		EntityName:  models.Payment{}.TableName(),
		EntityID:    p.ID,
		Extra:       map[string]any{"reference_no": p.ReferenceNo, "membership_id": p.MembershipID, "reason": reason},
	})
	return &p, nil
}

func (s *Service) loadPending(ctx context.Context, tx *gorm.DB, paymentID string, p *models.Payment) error {
	if err := tx.WithContext(ctx).First(p, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: payment %s", apperr.ErrNotFound, paymentID)
		}
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if p.Status.Terminal() {
		return fmt.Errorf("%w: payment %s is already %s", apperr.ErrInvalidStateTransition, paymentID, p.Status)
	}
	return nil
}

// Get loads a single payment.
func (s *Service) Get(ctx context.Context, paymentID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.db.WithContext(ctx).First(&p, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s", apperr.ErrNotFound, paymentID)
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return &p, nil
}

// ListForUser returns the member's own payments, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*models.Payment, error) {
	var rows []*models.Payment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("payment_date desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return rows, nil
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

type ScanPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

// ScanPayments implements the staff review queue: paginated listing with
// arbitrary field filters.
func (s *Service) ScanPayments(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Payment{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	var rows []*models.Payment
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}
