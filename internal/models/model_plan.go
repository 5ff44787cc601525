package models

import "time"

// MembershipPlan is a recurring membership product (monthly, yearly, ...).
// Archiving is a tagged soft-delete: archived plans stay joinable from historic
// memberships but are hidden from new-purchase listings.
type MembershipPlan struct {
	ID           string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	DurationDays int    `gorm:"column:duration_days;not null" json:"duration_days"`
	// PriceCentavos is the plan price in centavos. Never stored as floating point.
	PriceCentavos int64      `gorm:"column:price_centavos;type:bigint;not null" json:"price_centavos"`
	Description   string     `gorm:"column:description;type:text" json:"description"`
	Active        bool       `gorm:"column:active;not null;default:true" json:"active"`
	Archived      bool       `gorm:"column:archived;not null;default:false" json:"archived"`
	ArchivedAt    *time.Time `gorm:"column:archived_at;default:null" json:"archived_at"`
	ArchivedBy    *string    `gorm:"column:archived_by;type:uuid;default:null" json:"archived_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (MembershipPlan) TableName() string {
	return "membership_plans"
}

// Purchasable reports whether the plan may back a new subscription.
func (p *MembershipPlan) Purchasable() bool {
	return p != nil && p.Active && !p.Archived
}
