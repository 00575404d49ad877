package models

import (
	"gorm.io/gorm"
	"time"
)

type Model struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AllModels lists every table owned by the service, join tables included
func AllModels() []any {
	return []any{
		&User{},
		&RevokedSession{},
		&Tag{},
		&Post{},
		&PostTag{},
		&Project{},
		&ProjectTag{},
		&Ctf{},
		&About{},
		&Social{},
	}
}

// AutoMigrate registers the custom join tables and migrates all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Post{}, "Tags", &PostTag{}); err != nil {
		return err
	}
	if err := db.SetupJoinTable(&Project{}, "Tags", &ProjectTag{}); err != nil {
		return err
	}
	return db.AutoMigrate(AllModels()...)
}
