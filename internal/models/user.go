package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser       = "user"
	RoleSuperadmin = "superadmin"
)

type User struct {
	gorm.Model
	Name            string     `gorm:"not null"`
	Email           string     `gorm:"uniqueIndex;not null"`
	PasswordHash    string     `gorm:"not null"`
	Alias           string     `gorm:"uniqueIndex;not null"` // Публичный псевдоним пользователя
	ImageURL        string     // Ссылка на аватар (опционально)
	Description     string     `gorm:"type:text"`
	Role            string     `gorm:"not null;default:user"` // "user" или "superadmin"
	SendDailyAgenda bool       `gorm:"default:false"`         // Отправлять ли ежедневную сводку встреч
	AgendaSendTime  string     `gorm:"size:5"`                // Время отправки сводки 'HH:MM' (локальное)
	Timezone        string     `gorm:"size:64"`               // Часовой пояс пользователя, например "Europe/Moscow"
	Provider        string     `gorm:"size:20"`               // Внешний провайдер календаря: 'google', 'outlook' и т.д.
	RefreshToken    string     `gorm:"type:text"`
	AccessToken     string     `gorm:"type:text"`
	TokenExpiry     *time.Time // Срок действия access токена провайдера
}
