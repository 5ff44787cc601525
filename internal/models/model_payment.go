package models

import (
	"time"

	"github.com/rhosegym/gymcore/pkg/types"
)

// Payment is a manually confirmed cash/QR transaction by a registered member
// against one membership. pending -> confirmed|rejected, terminal thereafter.
type Payment struct {
	ID             string              `gorm:"column:id;type:uuid;primaryKey;index:idx_payment_user_id,priority:2,sort:desc" json:"id"`
	UserID         string              `gorm:"column:user_id;type:uuid;not null;index:idx_payment_user_id,priority:1" json:"user_id"`
	MembershipID   string              `gorm:"column:membership_id;type:uuid;not null;index" json:"membership_id"`
	AmountCentavos int64               `gorm:"column:amount_centavos;type:bigint;not null" json:"amount_centavos"`
	Method         types.PaymentMethod `gorm:"column:method;type:varchar(20);not null" json:"method"`
	Status         types.PaymentStatus `gorm:"column:status;type:varchar(20);not null;default:pending;index" json:"status"`
	// ReferenceNo format: PAY-YYYYMMDD-XXXXXX. Uniqueness is a DB constraint,
	// generation retries on collision.
	ReferenceNo     string     `gorm:"column:reference_no;type:varchar(50);not null;uniqueIndex" json:"reference_no"`
	Notes           string     `gorm:"column:notes;type:text" json:"notes"`
	PaymentDate     time.Time  `gorm:"column:payment_date;not null;index" json:"payment_date"`
	ApprovedBy      *string    `gorm:"column:approved_by;type:uuid;default:null" json:"approved_by"`
	ApprovedAt      *time.Time `gorm:"column:approved_at;default:null" json:"approved_at"`
	RejectionReason string     `gorm:"column:rejection_reason;type:text" json:"rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
