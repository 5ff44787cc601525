package models

import "time"

// Attendance is one kiosk visit. A user has at most one open record (no
// check-out) at a time; the partial unique index enforces that under
// concurrent check-in attempts.
type Attendance struct {
	ID              string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          string     `gorm:"column:user_id;type:uuid;not null;index:idx_attendance_user_checkin,priority:1;index:uniq_open_attendance,unique,where:check_out IS NULL" json:"user_id"`
	CheckIn         time.Time  `gorm:"column:check_in;not null;index:idx_attendance_user_checkin,priority:2,sort:desc;index" json:"check_in"`
	CheckOut        *time.Time `gorm:"column:check_out;default:null" json:"check_out"`
	DurationMinutes *int       `gorm:"column:duration_minutes;default:null" json:"duration_minutes"`
	Notes           string     `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Attendance) TableName() string {
	return "attendance"
}

func (a *Attendance) Open() bool {
	return a != nil && a.CheckOut == nil
}
