package types

type MembershipStatus string

const (
	MembershipStatusPending   MembershipStatus = "pending"
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusExpired   MembershipStatus = "expired"
	MembershipStatusCancelled MembershipStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s MembershipStatus) Terminal() bool {
	return s == MembershipStatusExpired || s == MembershipStatusCancelled
}
