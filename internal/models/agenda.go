package models

import "gorm.io/gorm"

type Agenda struct {
	gorm.Model
	UserID       uint     `gorm:"index;not null"`
	User         User     `gorm:"foreignKey:UserID"`
	CalendarID   uint     `gorm:"index;not null"`
	Calendar     Calendar `gorm:"foreignKey:CalendarID"`
	SlotDuration int      `gorm:"not null"`                  // Длительность слота в минутах: 30, 45 или 60
	AliasName    string   `gorm:"size:100;uniqueIndex;not null"` // Уникальный публичный адрес страницы бронирования
	IsActive     bool     `gorm:"default:true"`
}
