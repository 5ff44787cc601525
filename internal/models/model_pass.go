package models

import "time"

// WalkInPass is a non-recurring access product sold to walk-in customers
// (1-day, 3-day, weekly). Same archival semantics as MembershipPlan.
type WalkInPass struct {
	ID            string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string     `gorm:"column:name;type:varchar(100);not null" json:"name"`
	DurationDays  int        `gorm:"column:duration_days;not null" json:"duration_days"`
	PriceCentavos int64      `gorm:"column:price_centavos;type:bigint;not null" json:"price_centavos"`
	Description   string     `gorm:"column:description;type:text" json:"description"`
	Active        bool       `gorm:"column:active;not null;default:true" json:"active"`
	Archived      bool       `gorm:"column:archived;not null;default:false" json:"archived"`
	ArchivedAt    *time.Time `gorm:"column:archived_at;default:null" json:"archived_at"`
	ArchivedBy    *string    `gorm:"column:archived_by;type:uuid;default:null" json:"archived_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (WalkInPass) TableName() string {
	return "walk_in_passes"
}

func (p *WalkInPass) Purchasable() bool {
	return p != nil && p.Active && !p.Archived
}
