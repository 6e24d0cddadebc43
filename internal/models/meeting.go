package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	MeetingStatusBooked    = "booked"
	MeetingStatusCancelled = "cancelled"

	MeetingTypeVirtual  = "virtual"
	MeetingTypeInPerson = "in-person"
)

// Meeting — подтверждённое бронирование слота. Создаётся только через
// транзакцию бронирования, после чего неизменяемо, кроме перехода
// booked -> cancelled.
type Meeting struct {
	gorm.Model
	AgendaID         uint      `gorm:"index;not null"`
	Agenda           Agenda    `gorm:"foreignKey:AgendaID"`
	StartTime        time.Time `gorm:"index;not null"` // UTC
	EndTime          time.Time `gorm:"not null"`       // UTC, строго позже StartTime
	BookedByEmail    string    `gorm:"size:120;index;not null"`
	MeetingType      string    `gorm:"size:20;not null"` // "virtual" или "in-person"
	TravelTimeBefore int       `gorm:"default:0"`        // Буфер на дорогу до встречи, минуты
	TravelTimeAfter  int       `gorm:"default:0"`        // Буфер на дорогу после встречи, минуты
	VirtualApp       string    `gorm:"size:50"`          // Например, Zoom или Jitsi
	JoinLink         string    `gorm:"size:255"`         // Ссылка для подключения к виртуальной встрече
	Status           string    `gorm:"size:20;index;not null;default:booked"`
}
