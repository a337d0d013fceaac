package store

import (
	"ChatLink/models"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	// in-memory sqlite: every pool connection is a separate database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, usernames ...string) []uint {
	t.Helper()
	ids := make([]uint, 0, len(usernames))
	for _, name := range usernames {
		u := models.User{Email: name + "@example.com", Username: name, PasswordHash: "x"}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user %s: %v", name, err)
		}
		ids = append(ids, u.ID)
	}
	return ids
}
