package types

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// AuditAction tags every state-changing operation recorded in the audit trail.
type AuditAction string

const (
	// Authentication
	AuditActionLogin       AuditAction = "login"
	AuditActionLoginFailed AuditAction = "login_failed"
	AuditActionRegister    AuditAction = "register"

	// User management
	AuditActionUserCreated AuditAction = "user_created"
	AuditActionUserUpdated AuditAction = "user_updated"
	AuditActionRoleChanged AuditAction = "role_changed"

	// Membership
	AuditActionMembershipCreated   AuditAction = "membership_created"
	AuditActionMembershipActivated AuditAction = "membership_activated"
	AuditActionMembershipCancelled AuditAction = "membership_cancelled"
	AuditActionMembershipExpired   AuditAction = "membership_expired"

	// Payments
	AuditActionPaymentReceived  AuditAction = "payment_received"
	AuditActionPaymentConfirmed AuditAction = "payment_confirmed"
	AuditActionPaymentRejected  AuditAction = "payment_rejected"
	AuditActionWalkInSale       AuditAction = "walkin_sale"

	// Catalog
	AuditActionPlanCreated  AuditAction = "plan_created"
	AuditActionPlanUpdated  AuditAction = "plan_updated"
	AuditActionPlanArchived AuditAction = "plan_archived"
	AuditActionPlanRestored AuditAction = "plan_restored"
	AuditActionPassCreated  AuditAction = "pass_created"
	AuditActionPassUpdated  AuditAction = "pass_updated"
	AuditActionPassArchived AuditAction = "pass_archived"
	AuditActionPassRestored AuditAction = "pass_restored"

	// Attendance
	AuditActionCheckIn  AuditAction = "check_in"
	AuditActionCheckOut AuditAction = "check_out"

	// System
	AuditActionSettingsChanged AuditAction = "settings_changed"
	AuditActionAuditPurged     AuditAction = "audit_purged"
)
