package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/logctx"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

// RequestMeta carries the request attribution captured into audit entries.
// It is passed explicitly by handlers; the service never reads ambient state.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Entry is one state-changing action to record.
type Entry struct {
	Action      types.AuditAction
	ActorID     *string
	Description string
	// Severity defaults to info when empty.
	Severity   types.Severity
	Meta       *RequestMeta
	EntityName string
	EntityID   string
	Extra      map[string]any
}

type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB
}

func NewService(log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{log: log, db: db}
}

// Log appends one audit entry. It always succeeds from the caller's point of
// view: write failures are reported to the operational log only, so the
// triggering business operation is never aborted by its audit trail.
func (s *Service) Log(ctx context.Context, e Entry) {
	severity := e.Severity
	if severity == "" {
		severity = types.SeverityInfo
	}
	row := &models.AuditLogEntry{
		ID:          tool.GenerateUUIDV7(),
		ActorID:     e.ActorID,
		Action:      e.Action,
		Severity:    severity,
		Description: e.Description,
		EntityName:  e.EntityName,
		EntityID:    e.EntityID,
		Extra:       datatypes.JSONMap(e.Extra),
	}
	if row.Extra == nil {
		row.Extra = datatypes.JSONMap{}
	}
	if e.Meta != nil {
		row.IPAddress = e.Meta.IP
		row.UserAgent = e.Meta.UserAgent
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("audit write failed",
			"action", e.Action, "actor", e.ActorID, "err", err)
	}
}

type QueryRequest struct {
	ActorID  string            `json:"actor_id"`
	Action   types.AuditAction `json:"action"`
	Severity types.Severity    `json:"severity"`
	From     *time.Time        `json:"from"`
	To       *time.Time        `json:"to"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}

type QueryResponse struct {
	Items []*models.AuditLogEntry `json:"items"`
	Total int64                   `json:"total"`
}

// Query lists audit entries newest first with optional filters.
func (s *Service) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 20
	}
	if req.Page < 1 {
		req.Page = 1
	}

	tx := s.db.WithContext(ctx).Model(&models.AuditLogEntry{})
	if req.ActorID != "" {
		tx = tx.Where("actor_id = ?", req.ActorID)
	}
	if req.Action != "" {
		tx = tx.Where("action = ?", req.Action)
	}
	if req.Severity != "" {
		tx = tx.Where("severity = ?", req.Severity)
	}
	if req.From != nil {
		tx = tx.Where("created_at >= ?", *req.From)
	}
	if req.To != nil {
		tx = tx.Where("created_at <= ?", *req.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}

	var rows []*models.AuditLogEntry
	if err := tx.Order("created_at desc").
		Offset((req.Page - 1) * req.Size).
		Limit(req.Size).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return &QueryResponse{Items: rows, Total: total}, nil
}

// Purge removes entries older than the horizon. Explicit maintenance only,
// never scheduled automatically.
func (s *Service) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("created_at < ?", olderThan).
		Delete(&models.AuditLogEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge audit entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}
