package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/types"
)

// DailyReport summarizes one calendar day of business for the staff
// dashboard. Amounts are centavos.
type DailyReport struct {
	Date                 string `json:"date"`
	ActiveMembers        int64  `json:"active_members"`
	PaymentsConfirmed    int64  `json:"payments_confirmed"`
	PaymentsPending      int64  `json:"payments_pending"`
	MembershipSalesTotal int64  `json:"membership_sales_total"`
	WalkInsSold          int64  `json:"walkins_sold"`
	WalkInSalesTotal     int64  `json:"walkin_sales_total"`
	CheckIns             int64  `json:"check_ins"`
	TotalSalesCentavos   int64  `json:"total_sales_centavos"`
}

// ReportDaily aggregates the given day (local midnight to midnight).
func (s *Service) ReportDaily(ctx context.Context, day time.Time) (*DailyReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	r := &DailyReport{Date: start.Format("2006-01-02")}

	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("status = ?", types.MembershipStatusActive).
		Count(&r.ActiveMembers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active members: %w", err)
	}

	type sumRow struct {
		N   int64
		Sum int64
	}
	var confirmed sumRow
	err = s.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COUNT(*) AS n, COALESCE(SUM(amount_centavos), 0) AS sum").
		Where("status = ? AND approved_at >= ? AND approved_at < ?", types.PaymentStatusConfirmed, start, end).
		Scan(&confirmed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate confirmed payments: %w", err)
	}
	r.PaymentsConfirmed = confirmed.N
	r.MembershipSalesTotal = confirmed.Sum

	err = s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("status = ?", types.PaymentStatusPending).
		Count(&r.PaymentsPending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count pending payments: %w", err)
	}

	var walkins sumRow
	err = s.db.WithContext(ctx).Model(&models.WalkInPayment{}).
		Select("COUNT(*) AS n, COALESCE(SUM(amount_centavos), 0) AS sum").
		Where("payment_date >= ? AND payment_date < ?", start, end).
		Scan(&walkins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate walk-in sales: %w", err)
	}
	r.WalkInsSold = walkins.N
	r.WalkInSalesTotal = walkins.Sum

	err = s.db.WithContext(ctx).Model(&models.Attendance{}).
		Where("check_in >= ? AND check_in < ?", start, end).
		Count(&r.CheckIns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count check-ins: %w", err)
	}

	r.TotalSalesCentavos = r.MembershipSalesTotal + r.WalkInSalesTotal
	return r, nil
}
