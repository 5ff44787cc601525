package models

import "time"

// ChatbotSettingsID is the fixed primary key of the single settings row.
const ChatbotSettingsID = "default"

// ChatbotSettings is the admin-tunable configuration record for the support
// chatbot. One well-known row, loaded and updated explicitly.
type ChatbotSettings struct {
	ID              string    `gorm:"column:id;type:varchar(32);primaryKey" json:"id"`
	Model           string    `gorm:"column:model;type:varchar(100);not null" json:"model"`
	Temperature     float64   `gorm:"column:temperature;not null" json:"temperature"`
	MaxHistoryTurns int       `gorm:"column:max_history_turns;not null" json:"max_history_turns"`
	UpdatedBy       *string   `gorm:"column:updated_by;type:uuid;default:null" json:"updated_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (ChatbotSettings) TableName() string {
	return "chatbot_settings"
}
