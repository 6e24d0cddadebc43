package models

import "gorm.io/gorm"

// AvailabilitySlot — повторяющееся еженедельное окно доступности владельца.
type AvailabilitySlot struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	User      User   `gorm:"foreignKey:UserID"`
	DayOfWeek int    `gorm:"not null"`        // 0=понедельник .. 6=воскресенье
	StartTime string `gorm:"size:5;not null"` // 'HH:MM'
	EndTime   string `gorm:"size:5;not null"` // 'HH:MM', строго позже StartTime
}
