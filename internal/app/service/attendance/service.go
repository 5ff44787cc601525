package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/app/service/membership"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/metrics"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

// Service records gym visits. Check-in requires a valid membership; at most
// one session per user can be open.
type Service struct {
	log        *zap.SugaredLogger
	db         *gorm.DB
	audit      *audit.Service
	membership *membership.Service
}

func NewService(log *zap.SugaredLogger, db *gorm.DB, auditSvc *audit.Service, memberSvc *membership.Service) *Service {
	return &Service{log: log, db: db, audit: auditSvc, membership: memberSvc}
}

// CheckIn opens a session for the member. The partial unique index on open
// rows turns a concurrent double check-in into a duplicate-key error.
func (s *Service) CheckIn(ctx context.Context, userID string, meta *audit.RequestMeta) (*models.Attendance, error) {
	now := time.Now()
	valid, err := s.membership.HasValidMembership(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, fmt.Errorf("%w: user %s has no active membership", apperr.ErrMembershipRequired, userID)
	}

	a := &models.Attendance{
		ID:      tool.GenerateUUIDV7(),
		UserID:  userID,
		CheckIn: now,
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: user %s already has an open session", apperr.ErrAlreadyCheckedIn, userID)
		}
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}

	metrics.IncBusinessEvent(metrics.EventCheckIn)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionCheckIn,
		ActorID:     &userID,
		Description: fmt.Sprintf("user %s checked in", userID),
		Meta:        meta,
		EntityName:  models.Attendance{}.TableName(),
		EntityID:    a.ID,
	})
	return a, nil
}

// CheckOut closes the user's open session and stores the visit length in
// whole minutes, rounded half up.
func (s *Service) CheckOut(ctx context.Context, userID string, meta *audit.RequestMeta) (*models.Attendance, error) {
	var a models.Attendance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND check_out IS NULL", userID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s has no open session", apperr.ErrNoOpenSession, userID)
		}
		return nil, fmt.Errorf("failed to find open session: %w", err)
	}

	now := time.Now()
	minutes := int(math.Round(now.Sub(a.CheckIn).Minutes()))
	res := s.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("id = ? AND check_out IS NULL", a.ID).
		Updates(map[string]any{
			"check_out":        now,
			"duration_minutes": minutes,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to record check-out: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: session %s closed concurrently", apperr.ErrNoOpenSession, a.ID)
	}

	a.CheckOut = &now
	a.DurationMinutes = &minutes

	metrics.IncBusinessEvent(metrics.EventCheckOut)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionCheckOut,
		ActorID:     &userID,
		Description: fmt.Sprintf("user %s checked out after %d minutes", userID, minutes),
		Meta:        meta,
		EntityName:  models.Attendance{}.TableName(),
		EntityID:    a.ID,
		Extra:       map[string]any{"duration_minutes": minutes},
	})
	return &a, nil
}

// OpenSession returns the user's open attendance row, or nil.
func (s *Service) OpenSession(ctx context.Context, userID string) (*models.Attendance, error) {
	var a models.Attendance
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND check_out IS NULL", userID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load open session: %w", err)
	}
	return &a, nil
}

// ListForUser returns the user's visit history, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Attendance, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []*models.Attendance
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("check_in desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return rows, nil
}

// ListOpenSessions returns everyone currently inside, oldest first. Staff
// floor view.
func (s *Service) ListOpenSessions(ctx context.Context) ([]*models.Attendance, error) {
	var rows []*models.Attendance
	err := s.db.WithContext(ctx).
		Where("check_out IS NULL").
		Order("check_in asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	return rows, nil
}
