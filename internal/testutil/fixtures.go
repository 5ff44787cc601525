package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/rhosegym/gymcore/internal/models"
	"github.com/rhosegym/gymcore/pkg/tool"
	"github.com/rhosegym/gymcore/pkg/types"
)

var fixtureSeq int64

func nextSeq() int64 {
	fixtureSeq++
	return fixtureSeq
}

// TestUser creates a member account fixture.
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*models.User)) *models.User {
	t.Helper()

	seq := nextSeq()
	user := &models.User{
		ID:           tool.GenerateUUIDV7(),
		Username:     fmt.Sprintf("user_%d_%d", time.Now().UnixNano()%100000, seq),
		Email:        fmt.Sprintf("user_%d_%d@example.com", time.Now().UnixNano()%100000, seq),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456",
		FullName:     "Test User",
		Role:         types.RoleMember,
		Active:       true,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func WithRole(role types.Role) func(*models.User) {
	return func(u *models.User) { u.Role = role }
}

func WithUsername(username string) func(*models.User) {
	return func(u *models.User) { u.Username = username }
}

func WithKioskPIN(pin string) func(*models.User) {
	return func(u *models.User) { u.KioskPIN = &pin }
}

func WithInactive() func(*models.User) {
	return func(u *models.User) { u.Active = false }
}

// TestPlan creates a purchasable membership plan fixture.
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*models.MembershipPlan)) *models.MembershipPlan {
	t.Helper()

	plan := &models.MembershipPlan{
		ID:            tool.GenerateUUIDV7(),
		Name:          fmt.Sprintf("Monthly %d", nextSeq()),
		DurationDays:  30,
		PriceCentavos: 150000,
		Active:        true,
	}
	for _, opt := range opts {
		opt(plan)
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create test plan: %v", err)
	}
	return plan
}

func WithPlanPrice(centavos int64) func(*models.MembershipPlan) {
	return func(p *models.MembershipPlan) { p.PriceCentavos = centavos }
}

func WithPlanDuration(days int) func(*models.MembershipPlan) {
	return func(p *models.MembershipPlan) { p.DurationDays = days }
}

func WithPlanArchived() func(*models.MembershipPlan) {
	return func(p *models.MembershipPlan) {
		now := time.Now()
		p.Active = false
		p.Archived = true
		p.ArchivedAt = &now
	}
}

// TestPass creates a purchasable walk-in pass fixture.
func TestPass(t *testing.T, db *gorm.DB, opts ...func(*models.WalkInPass)) *models.WalkInPass {
	t.Helper()

	pass := &models.WalkInPass{
		ID:            tool.GenerateUUIDV7(),
		Name:          fmt.Sprintf("1-Day Pass %d", nextSeq()),
		DurationDays:  1,
		PriceCentavos: 10000,
		Active:        true,
	}
	for _, opt := range opts {
		opt(pass)
	}
	if err := db.Create(pass).Error; err != nil {
		t.Fatalf("failed to create test pass: %v", err)
	}
	return pass
}

func WithPassArchived() func(*models.WalkInPass) {
	return func(p *models.WalkInPass) {
		now := time.Now()
		p.Active = false
		p.Archived = true
		p.ArchivedAt = &now
	}
}

// TestMembership creates a membership fixture, pending by default.
func TestMembership(t *testing.T, db *gorm.DB, userID, planID string, opts ...func(*models.Membership)) *models.Membership {
	t.Helper()

	m := &models.Membership{
		ID:     tool.GenerateUUIDV7(),
		UserID: userID,
		PlanID: planID,
		Status: types.MembershipStatusPending,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

func WithMembershipStatus(status types.MembershipStatus) func(*models.Membership) {
	return func(m *models.Membership) { m.Status = status }
}

func WithMembershipDates(start, end time.Time) func(*models.Membership) {
	return func(m *models.Membership) {
		m.StartDate = &start
		m.EndDate = &end
	}
}
