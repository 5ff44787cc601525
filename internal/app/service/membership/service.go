package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/catalog"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/logctx"
	"github.com/rhosegym/gymcore/pkg/metrics"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

// Service drives the membership lifecycle:
// pending -> active (payment approval) -> expired (sweep),
// with cancellation allowed from pending or active.
type Service struct {
	log     *zap.SugaredLogger
	db      *gorm.DB
	audit   *audit.Service
	catalog *catalog.Service
}

func NewService(log *zap.SugaredLogger, db *gorm.DB, auditSvc *audit.Service, catalogSvc *catalog.Service) *Service {
	return &Service{log: log, db: db, audit: auditSvc, catalog: catalogSvc}
}

// Subscribe creates a pending membership for the user against a purchasable
// plan. Dates stay unset until a payment approval activates it.
func (s *Service) Subscribe(ctx context.Context, userID, planID string, meta *audit.RequestMeta) (*models.Membership, error) {
	plan, err := s.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Purchasable() {
		return nil, fmt.Errorf("%w: plan %q is not open for subscription", apperr.ErrValidation, plan.Name)
	}

	var open int64
	err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ? AND status IN ?", userID,
			[]types.MembershipStatus{types.MembershipStatusPending, types.MembershipStatusActive}).
		Count(&open).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing memberships: %w", err)
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: user already has a pending or active membership", apperr.ErrValidation)
	}

	m := &models.Membership{
		ID:     tool.GenerateUUIDV7(),
		UserID: userID,
		PlanID: planID,
		Status: types.MembershipStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionMembershipCreated,
		ActorID:     &userID,
		Description: fmt.Sprintf("subscribed to plan %q, awaiting payment", plan.Name),
		Meta:        meta,
		EntityName:  models.Membership{}.TableName(),
		EntityID:    m.ID,
		Extra:       map[string]any{"plan_id": planID, "price_centavos": plan.PriceCentavos},
	})
	m.Plan = plan
	return m, nil
}

// Get loads a membership with its plan.
func (s *Service) Get(ctx context.Context, membershipID string) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).Preload("Plan").First(&m, "id = ?", membershipID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: membership %s", apperr.ErrNotFound, membershipID)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	return &m, nil
}

// CurrentForUser returns the user's newest non-terminal membership, or nil.
func (s *Service) CurrentForUser(ctx context.Context, userID string) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).Preload("Plan").
		Where("user_id = ? AND status IN ?", userID,
			[]types.MembershipStatus{types.MembershipStatusPending, types.MembershipStatusActive}).
		Order("created_at desc").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current membership: %w", err)
	}
	return &m, nil
}

// HasValidMembership reports whether the user may enter the gym right now.
func (s *Service) HasValidMembership(ctx context.Context, userID string, now time.Time) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("user_id = ? AND status = ? AND end_date >= ?", userID, types.MembershipStatusActive, now).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership validity: %w", err)
	}
	return n > 0, nil
}

// ActivateTx materializes the date range inside the caller's transaction.
// Only a pending membership can activate; anything else aborts the caller
// so a confirmed payment can never sit next to a non-active membership.
func (s *Service) ActivateTx(ctx context.Context, tx *gorm.DB, membershipID string, now time.Time) (*models.Membership, error) {
	var m models.Membership
	if err := tx.WithContext(ctx).Preload("Plan").First(&m, "id = ?", membershipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: membership %s", apperr.ErrNotFound, membershipID)
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if m.Plan == nil {
		return nil, fmt.Errorf("membership %s has no plan", membershipID)
	}

	start := now
	end := start.AddDate(0, 0, m.Plan.DurationDays)
	res := tx.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ? AND status = ?", membershipID, types.MembershipStatusPending).
		Updates(map[string]any{
			"status":     types.MembershipStatusActive,
			"start_date": start,
			"end_date":   end,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to activate membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: membership %s is %s, cannot activate", apperr.ErrInvalidStateTransition, membershipID, m.Status)
	}

	m.Status = types.MembershipStatusActive
	m.StartDate = &start
	m.EndDate = &end
	return &m, nil
}

// CancelTx cancels inside the caller's transaction on behalf of a payment
// rejection. Already-cancelled is a no-op there; expired still aborts.
func (s *Service) CancelTx(ctx context.Context, tx *gorm.DB, membershipID string) error {
	var m models.Membership
	if err := tx.WithContext(ctx).First(&m, "id = ?", membershipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: membership %s", apperr.ErrNotFound, membershipID)
		}
		return fmt.Errorf("failed to load membership: %w", err)
	}
	if m.Status == types.MembershipStatusCancelled {
		return nil
	}
	if m.Status == types.MembershipStatusExpired {
		return fmt.Errorf("%w: membership %s is expired", apperr.ErrInvalidStateTransition, membershipID)
	}
	res := tx.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ? AND status IN ?", membershipID,
			[]types.MembershipStatus{types.MembershipStatusPending, types.MembershipStatusActive}).
		Update("status", types.MembershipStatusCancelled)
	if res.Error != nil {
		return fmt.Errorf("failed to cancel membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: membership %s changed state concurrently", apperr.ErrInvalidStateTransition, membershipID)
	}
	return nil
}

// Cancel is the explicit cancellation operation. Allowed from pending or
// active only; cancelling an expired membership is an invalid transition.
func (s *Service) Cancel(ctx context.Context, membershipID, actorID string, meta *audit.RequestMeta) error {
	var prior types.MembershipStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Membership
		if err := tx.First(&m, "id = ?", membershipID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: membership %s", apperr.ErrNotFound, membershipID)
			}
			return fmt.Errorf("failed to load membership: %w", err)
		}
		if m.Status.Terminal() {
			return fmt.Errorf("%w: membership %s is %s", apperr.ErrInvalidStateTransition, membershipID, m.Status)
		}
		prior = m.Status
		res := tx.Model(&models.Membership{}).
			Where("id = ? AND status = ?", membershipID, m.Status).
			Update("status", types.MembershipStatusCancelled)
		if res.Error != nil {
			return fmt.Errorf("failed to cancel membership: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: membership %s changed state concurrently", apperr.ErrInvalidStateTransition, membershipID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionMembershipCancelled,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("membership %s cancelled", membershipID),
		Meta:        meta,
		EntityName:  models.Membership{}.TableName(),
		EntityID:    membershipID,
		Extra:       map[string]any{"old_status": string(prior), "new_status": string(types.MembershipStatusCancelled)},
	})
	return nil
}

// ExpireSweep transitions every overdue active membership to expired and
// writes one audit entry per transition. Safe to re-run: the status filter
// makes a second pass a no-op.
func (s *Service) ExpireSweep(ctx context.Context) (int, error) {
	now := time.Now()
	var due []*models.Membership
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", types.MembershipStatusActive, now).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue memberships: %w", err)
	}

	expired := 0
	for _, m := range due {
		res := s.db.WithContext(ctx).Model(&models.Membership{}).
			Where("id = ? AND status = ?", m.ID, types.MembershipStatusActive).
			Update("status", types.MembershipStatusExpired)
		if res.Error != nil {
			return expired, fmt.Errorf("failed to expire membership %s: %w", m.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Transitioned concurrently; nothing to record.
			continue
		}
		expired++
		metrics.IncBusinessEvent(metrics.EventMembershipExpired)
		s.audit.Log(ctx, audit.Entry{
			Action:      types.AuditActionMembershipExpired,
			Description: fmt.Sprintf("membership %s expired on sweep", m.ID),
			EntityName:  models.Membership{}.TableName(),
			EntityID:    m.ID,
			Extra:       map[string]any{"user_id": m.UserID, "end_date": m.EndDate},
		})
	}
	if expired > 0 {
		logctx.FromCtx(ctx, s.log).Infow("expire sweep completed", "expired", expired)
	}
	return expired, nil
}

func actorRef(actorID string) *string {
	if actorID == "" {
		return nil
	}
	return &actorID
}
