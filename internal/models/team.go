package models

import "gorm.io/gorm"

type Team struct {
	gorm.Model
	UserID  uint         `gorm:"index;not null"`
	User    User         `gorm:"foreignKey:UserID"`
	Name    string       `gorm:"size:100;not null"`
	Members []TeamMember `gorm:"foreignKey:TeamID"`
}

type TeamMember struct {
	gorm.Model
	TeamID uint   `gorm:"index;not null"`
	Email  string `gorm:"size:120;not null"`
}
