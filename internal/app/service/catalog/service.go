package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/platform/cache"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

const (
	activePlansCacheKey  = "catalog:plans:active"
	activePassesCacheKey = "catalog:passes:active"
	activeListingTTL     = time.Minute
)

// Service owns the catalog: membership plans and walk-in passes.
type Service struct {
	log   *zap.SugaredLogger
	db    *gorm.DB
	cache *cache.Cache
	audit *audit.Service
}

func NewService(log *zap.SugaredLogger, db *gorm.DB, c *cache.Cache, auditSvc *audit.Service) *Service {
	return &Service{log: log, db: db, cache: c, audit: auditSvc}
}

type ItemRequest struct {
	Name          string `json:"name"`
	DurationDays  int    `json:"duration_days"`
	PriceCentavos int64  `json:"price_centavos"`
	Description   string `json:"description"`
}

func (r *ItemRequest) validate() error {
	if r == nil || r.Name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	if r.DurationDays <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", apperr.ErrValidation, r.DurationDays)
	}
	if r.PriceCentavos < 0 {
		return fmt.Errorf("%w: price must not be negative, got %d", apperr.ErrValidation, r.PriceCentavos)
	}
	return nil
}

// CreatePlan adds a membership plan to the catalog.
func (s *Service) CreatePlan(ctx context.Context, req *ItemRequest, actorID string, meta *audit.RequestMeta) (*models.MembershipPlan, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	plan := &models.MembershipPlan{
		ID:            tool.GenerateUUIDV7(),
		Name:          req.Name,
		DurationDays:  req.DurationDays,
		PriceCentavos: req.PriceCentavos,
		Description:   req.Description,
		Active:        true,
	}
	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPlanCreated,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("plan %q created", plan.Name),
		Meta:        meta,
		EntityName:  models.MembershipPlan{}.TableName(),
		EntityID:    plan.ID,
		Extra:       map[string]any{"price_centavos": plan.PriceCentavos, "duration_days": plan.DurationDays},
	})
	return plan, nil
}

// UpdatePlan edits name/duration/price/description. Memberships already
// created from prior values are not touched.
func (s *Service) UpdatePlan(ctx context.Context, planID string, req *ItemRequest, actorID string, meta *audit.RequestMeta) (*models.MembershipPlan, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var plan models.MembershipPlan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: plan %s", apperr.ErrNotFound, planID)
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	plan.Name = req.Name
	plan.DurationDays = req.DurationDays
	plan.PriceCentavos = req.PriceCentavos
	plan.Description = req.Description
	if err := s.db.WithContext(ctx).Save(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPlanUpdated,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("plan %q updated", plan.Name),
		Meta:        meta,
		EntityName:  models.MembershipPlan{}.TableName(),
		EntityID:    plan.ID,
	})
	return &plan, nil
}

// ArchivePlan soft-deletes: the plan disappears from active listings but
// historic memberships keep their reference.
func (s *Service) ArchivePlan(ctx context.Context, planID, actorID string, meta *audit.RequestMeta) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.MembershipPlan{}).
		Where("id = ? AND archived = ?", planID, false).
		Updates(map[string]any{
			"active":      false,
			"archived":    true,
			"archived_at": now,
			"archived_by": actorRef(actorID),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to archive plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: plan %s missing or already archived", apperr.ErrNotFound, planID)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPlanArchived,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("plan %s archived", planID),
		Meta:        meta,
		EntityName:  models.MembershipPlan{}.TableName(),
		EntityID:    planID,
	})
	return nil
}

// RestorePlan clears the archive fields and reactivates the plan.
func (s *Service) RestorePlan(ctx context.Context, planID, actorID string, meta *audit.RequestMeta) error {
	res := s.db.WithContext(ctx).Model(&models.MembershipPlan{}).
		Where("id = ? AND archived = ?", planID, true).
		Updates(map[string]any{
			"active":      true,
			"archived":    false,
			"archived_at": nil,
			"archived_by": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to restore plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: plan %s missing or not archived", apperr.ErrNotFound, planID)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPlanRestored,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("plan %s restored", planID),
		Meta:        meta,
		EntityName:  models.MembershipPlan{}.TableName(),
		EntityID:    planID,
	})
	return nil
}

// ListActivePlans returns purchasable plans ordered by price ascending.
func (s *Service) ListActivePlans(ctx context.Context) ([]*models.MembershipPlan, error) {
	return cache.GetOrSet(ctx, s.cache, activePlansCacheKey, activeListingTTL, func() ([]*models.MembershipPlan, error) {
		var plans []*models.MembershipPlan
		err := s.db.WithContext(ctx).
			Where("active = ? AND archived = ?", true, false).
			Order("price_centavos asc").
			Find(&plans).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list active plans: %w", err)
		}
		return plans, nil
	})
}

// GetPlan loads a plan regardless of archive state (historic joins stay readable).
func (s *Service) GetPlan(ctx context.Context, planID string) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: plan %s", apperr.ErrNotFound, planID)
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &plan, nil
}

func (s *Service) invalidateListings(ctx context.Context) {
	if err := s.cache.Delete(ctx, activePlansCacheKey, activePassesCacheKey); err != nil {
		s.log.Warnw("catalog cache invalidation failed", "err", err)
	}
}

func actorRef(actorID string) *string {
	if actorID == "" {
		return nil
	}
	return &actorID
}
