package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/app/service/audit"
	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/apperr"
	"github.com/rhosegym/gymcore/pkg/metrics"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

type WalkInRequest struct {
	PassID       string              `json:"pass_id"`
	CustomerName string              `json:"customer_name"`
	MobileNo     string              `json:"mobile_no"`
	Method       types.PaymentMethod `json:"method"`
	Notes        string              `json:"notes"`
}

// CreateWalkIn sells a pass over the counter. The sale is confirmed on the
// spot at list price and never creates a membership.
func (s *Service) CreateWalkIn(ctx context.Context, req *WalkInRequest, processedBy string, meta *audit.RequestMeta) (*models.WalkInPayment, error) {
	if req == nil || req.PassID == "" {
		return nil, fmt.Errorf("%w: pass_id is required", apperr.ErrValidation)
	}
	if !req.Method.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", apperr.ErrValidation, req.Method)
	}
	if processedBy == "" {
		return nil, fmt.Errorf("%w: processing staff id is required", apperr.ErrValidation)
	}

	pass, err := s.catalog.GetPass(ctx, req.PassID)
	if err != nil {
		return nil, err
	}
	if !pass.Purchasable() {
		return nil, fmt.Errorf("%w: pass %q is not on sale", apperr.ErrValidation, pass.Name)
	}

	w := &models.WalkInPayment{
		ID:             tool.GenerateUUIDV7(),
		PassID:         pass.ID,
		CustomerName:   req.CustomerName,
		MobileNo:       req.MobileNo,
		AmountCentavos: pass.PriceCentavos,
		Method:         req.Method,
		Notes:          req.Notes,
		ProcessedBy:    processedBy,
		PaymentDate:    time.Now(),
	}
	if err := s.createWalkInWithReference(ctx, w); err != nil {
		return nil, err
	}

	// Customer name and contact are optional; anonymous sales are fine.
	customer := w.CustomerName
	if customer == "" {
		customer = "Anonymous"
	}

	metrics.IncBusinessEvent(metrics.EventWalkInSale)
	s.audit.Log(ctx, audit.Entry{
		Action:      types.AuditActionWalkInSale,
		ActorID:     &processedBy,
		Description: fmt.Sprintf("walk-in pass %q sold to %s, reference %s", pass.Name, customer, w.ReferenceNo),
		Meta:        meta,
		EntityName:  models.WalkInPayment{}.TableName(),
		EntityID:    w.ID,
		Extra: map[string]any{
			"reference_no":    w.ReferenceNo,
			"pass_id":         pass.ID,
			"amount_centavos": w.AmountCentavos,
			"method":          string(w.Method),
		},
	})
	return w, nil
}

func (s *Service) createWalkInWithReference(ctx context.Context, w *models.WalkInPayment) error {
	for i := 0; i < referenceRetries; i++ {
		w.ReferenceNo = tool.GenerateReference(types.ReferencePrefixWalkIn, w.PaymentDate)
		err := s.db.WithContext(ctx).Create(w).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create walk-in payment: %w", err)
		}
		s.log.Warnw("walk-in reference collision, retrying", "reference_no", w.ReferenceNo, "attempt", i+1)
	}
	return fmt.Errorf("%w: could not generate a unique walk-in reference after %d attempts", apperr.ErrRetryExhausted, referenceRetries)
}

// ListWalkIns returns walk-in sales inside the window, newest first.
func (s *Service) ListWalkIns(ctx context.Context, from, to time.Time) ([]*models.WalkInPayment, error) {
	var rows []*models.WalkInPayment
	err := s.db.WithContext(ctx).
		Where("payment_date >= ? AND payment_date < ?", from, to).
		Order("payment_date desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list walk-in payments: %w", err)
	}
	return rows, nil
}
