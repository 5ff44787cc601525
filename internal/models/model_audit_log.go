package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/rhosegym/gymcore/pkg/types"
)

// AuditLogEntry is one immutable record of a state-changing action.
// Rows are only ever removed by the explicit retention purge.
type AuditLogEntry struct {
	ID          string            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ActorID     *string           `gorm:"column:actor_id;type:uuid;default:null;index:idx_audit_actor_time,priority:1" json:"actor_id"`
	Action      types.AuditAction `gorm:"column:action;type:varchar(50);not null;index:idx_audit_action_time,priority:1" json:"action"`
	Severity    types.Severity    `gorm:"column:severity;type:varchar(10);not null;default:info;index" json:"severity"`
	Description string            `gorm:"column:description;type:text;not null" json:"description"`
	IPAddress   string            `gorm:"column:ip_address;type:varchar(45)" json:"ip_address"`
	UserAgent   string            `gorm:"column:user_agent;type:text" json:"user_agent"`
	// Optional reference to the entity the action touched.
	EntityName string `gorm:"column:entity_name;type:varchar(100)" json:"entity_name"`
	EntityID   string `gorm:"column:entity_id;type:varchar(100)" json:"entity_id"`
	// Extra carries the structured forensic payload (amounts, old/new status).
	Extra     datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time         `gorm:"column:created_at;index:idx_audit_actor_time,priority:2,sort:desc;index:idx_audit_action_time,priority:2,sort:desc;index" json:"created_at"`
}

func (AuditLogEntry) TableName() string {
	return "audit_logs"
}
