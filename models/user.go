package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email           string `gorm:"uniqueIndex;size:120;not null"`
	Username        string `gorm:"uniqueIndex;size:80;not null"`
	PasswordHash    string `gorm:"size:255;not null"`
	ProfileImageURL string `gorm:"size:500"`
}

// PublicProfile is the subset of user fields exposed to other participants,
// e.g. in conversation list summaries.
type PublicProfile struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username, ProfileImageURL: u.ProfileImageURL}
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}
