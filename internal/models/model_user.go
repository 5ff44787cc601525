package models

import (
	"time"

	"github.com/rhosegym/gymcore/pkg/types"
)

// User is a gym account: member, staff or admin. Accounts are soft-disabled
// via Active and never hard-deleted while referenced by payments or audit rows.
type User struct {
	ID           string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username     string     `gorm:"column:username;type:varchar(150);not null;uniqueIndex" json:"username"`
	Email        string     `gorm:"column:email;type:varchar(254);not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	FullName     string     `gorm:"column:full_name;type:varchar(200)" json:"full_name"`
	Role         types.Role `gorm:"column:role;type:varchar(10);not null;default:member" json:"role"`
	MobileNo     string     `gorm:"column:mobile_no;type:varchar(20)" json:"mobile_no"`
	Address      string     `gorm:"column:address;type:text" json:"address"`
	Birthdate    *time.Time `gorm:"column:birthdate;default:null" json:"birthdate"`
	// Elevated-privilege flags. Role is derived from them only through an
	// explicit SyncRole call, never implicitly on save.
	IsSuperuser bool `gorm:"column:is_superuser;not null;default:false" json:"is_superuser"`
	IsStaff     bool `gorm:"column:is_staff;not null;default:false" json:"is_staff"`
	// KioskPIN is a unique 6-digit code for the attendance kiosk. Null until issued.
	KioskPIN  *string   `gorm:"column:kiosk_pin;type:varchar(6);uniqueIndex" json:"-"`
	Active    bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Age(today time.Time) int {
	if u == nil || u.Birthdate == nil {
		return 0
	}
	b := *u.Birthdate
	age := today.Year() - b.Year()
	if today.Month() < b.Month() || (today.Month() == b.Month() && today.Day() < b.Day()) {
		age--
	}
	return age
}
