package models

import (
	"time"

	"github.com/rhosegym/gymcore/pkg/types"
)

// WalkInPayment records a pass sale to a customer without an account.
// There is no approval step: the record is confirmed on creation and never
// produces a membership.
type WalkInPayment struct {
	ID             string              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PassID         string              `gorm:"column:pass_id;type:uuid;not null;index" json:"pass_id"`
	CustomerName   string              `gorm:"column:customer_name;type:varchar(100)" json:"customer_name"`
	MobileNo       string              `gorm:"column:mobile_no;type:varchar(20)" json:"mobile_no"`
	AmountCentavos int64               `gorm:"column:amount_centavos;type:bigint;not null" json:"amount_centavos"`
	Method         types.PaymentMethod `gorm:"column:method;type:varchar(20);not null" json:"method"`
	// ReferenceNo format: WLK-YYYYMMDD-XXXXXX.
	ReferenceNo string    `gorm:"column:reference_no;type:varchar(50);not null;uniqueIndex" json:"reference_no"`
	Notes       string    `gorm:"column:notes;type:text" json:"notes"`
	ProcessedBy string    `gorm:"column:processed_by;type:uuid;not null" json:"processed_by"`
	PaymentDate time.Time `gorm:"column:payment_date;not null;index" json:"payment_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (WalkInPayment) TableName() string {
	return "walk_in_payments"
}
