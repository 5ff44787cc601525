package models

import (
	"time"

	"github.com/rhosegym/gymcore/pkg/types"
)

// Membership ties one user to one plan for a bounded period.
// Dates stay null while the membership is pending payment; activation
// materializes start/end with end = start + plan duration.
type Membership struct {
	ID        string                 `gorm:"column:id;type:uuid;primaryKey;index:idx_membership_user_id,priority:2,sort:desc" json:"id"`
	UserID    string                 `gorm:"column:user_id;type:uuid;not null;index:idx_membership_user_id,priority:1" json:"user_id"`
	PlanID    string                 `gorm:"column:plan_id;type:uuid;not null;index" json:"plan_id"`
	StartDate *time.Time             `gorm:"column:start_date;default:null" json:"start_date"`
	EndDate   *time.Time             `gorm:"column:end_date;default:null;index" json:"end_date"`
	Status    types.MembershipStatus `gorm:"column:status;type:varchar(20);not null;default:pending;index" json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`

	Plan *MembershipPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (Membership) TableName() string {
	return "user_memberships"
}

// ValidForEntry reports whether the membership currently admits the holder.
func (m *Membership) ValidForEntry(now time.Time) bool {
	return m != nil &&
		m.Status == types.MembershipStatusActive &&
		m.EndDate != nil &&
		!m.EndDate.Before(now)
}

func (m *Membership) DaysRemaining(now time.Time) int {
	if m == nil || m.EndDate == nil || m.EndDate.Before(now) {
		return 0
	}
	return int(m.EndDate.Sub(now).Hours() / 24)
}
