package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/internal/platform/cache"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

// Walk-in pass operations, symmetric with the plan side.

func (s *Service) CreatePass(ctx context.Context, req *ItemRequest, actorID string, meta *audit.RequestMeta) (*models.WalkInPass, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	pass := &models.WalkInPass{
		ID:            tool.GenerateUUIDV7(),
		Name:          req.Name,
		DurationDays:  req.DurationDays,
		PriceCentavos: req.PriceCentavos,
		Description:   req.Description,
		Active:        true,
	}
	if err := s.db.WithContext(ctx).Create(pass).Error; err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPassCreated,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("pass %q created", pass.Name),
		Meta:        meta,
		EntityName:  models.WalkInPass{}.TableName(),
		EntityID:    pass.ID,
		Extra:       map[string]any{"price_centavos": pass.PriceCentavos, "duration_days": pass.DurationDays},
	})
	return pass, nil
}

func (s *Service) UpdatePass(ctx context.Context, passID string, req *ItemRequest, actorID string, meta *audit.RequestMeta) (*models.WalkInPass, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var pass models.WalkInPass
	if err := s.db.WithContext(ctx).First(&pass, "id = ?", passID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: pass %s", apperr.ErrNotFound, passID)
		}
		return nil, fmt.Errorf("failed to load pass: %w", err)
	}
	pass.Name = req.Name
	pass.DurationDays = req.DurationDays
	pass.PriceCentavos = req.PriceCentavos
	pass.Description = req.Description
	if err := s.db.WithContext(ctx).Save(&pass).Error; err != nil {
		return nil, fmt.Errorf("failed to update pass: %w", err)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPassUpdated,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("pass %q updated", pass.Name),
		Meta:        meta,
		EntityName:  models.WalkInPass{}.TableName(),
		EntityID:    pass.ID,
	})
	return &pass, nil
}

func (s *Service) ArchivePass(ctx context.Context, passID, actorID string, meta *audit.RequestMeta) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.WalkInPass{}).
		Where("id = ? AND archived = ?", passID, false).
		Updates(map[string]any{
			"active":      false,
			"archived":    true,
			"archived_at": now,
			"archived_by": actorRef(actorID),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to archive pass: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: pass %s missing or already archived", apperr.ErrNotFound, passID)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPassArchived,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("pass %s archived", passID),
		Meta:        meta,
		EntityName:  models.WalkInPass{}.TableName(),
		EntityID:    passID,
	})
	return nil
}

func (s *Service) RestorePass(ctx context.Context, passID, actorID string, meta *audit.RequestMeta) error {
	res := s.db.WithContext(ctx).Model(&models.WalkInPass{}).
		Where("id = ? AND archived = ?", passID, true).
		Updates(map[string]any{
			"active":      true,
			"archived":    false,
			"archived_at": nil,
			"archived_by": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to restore pass: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: pass %s missing or not archived", apperr.ErrNotFound, passID)
	}
	s.invalidateListings(ctx)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionPassRestored,
		ActorID:     actorRef(actorID),
		Description: fmt.Sprintf("pass %s restored", passID),
		Meta:        meta,
		EntityName:  models.WalkInPass{}.TableName(),
		EntityID:    passID,
	})
	return nil
}

func (s *Service) ListActivePasses(ctx context.Context) ([]*models.WalkInPass, error) {
	return cache.GetOrSet(ctx, s.cache, activePassesCacheKey, activeListingTTL, func() ([]*models.WalkInPass, error) {
		var passes []*models.WalkInPass
		err := s.db.WithContext(ctx).
			Where("active = ? AND archived = ?", true, false).
			Order("price_centavos asc").
			Find(&passes).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list active passes: %w", err)
		}
		return passes, nil
	})
}

func (s *Service) GetPass(ctx context.Context, passID string) (*models.WalkInPass, error) {
	var pass models.WalkInPass
	if err := s.db.WithContext(ctx).First(&pass, "id = ?", passID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: pass %s", apperr.ErrNotFound, passID)
		}
		return nil, fmt.Errorf("failed to load pass: %w", err)
	}
	return &pass, nil
}
