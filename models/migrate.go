package models

import (
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Quiz{},
		&Question{},
		&Choice{},
		&Invitation{},
		&UserQuiz{},
		&Answer{},
	)
}
