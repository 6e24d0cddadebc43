package models

import "gorm.io/gorm"

type Calendar struct {
	gorm.Model
	UserID        uint   `gorm:"index;not null"`
	User          User   `gorm:"foreignKey:UserID"`
	Alias         string `gorm:"size:100;not null"`
	IsPrimary     bool   `gorm:"default:false"`              // Не более одного основного календаря на пользователя
	SyncDirection string `gorm:"size:10;default:'one-way'"`  // 'one-way' или 'two-way'
	SubjectPrefix string `gorm:"size:50"`                    // Префикс темы при синхронизации событий
}
