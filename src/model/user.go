package model

import "time"

// User owns strategies and runs. API access uses a key-id / secret pair;
// only the bcrypt hash of the secret is stored.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserName string `gorm:"size:120;uniqueIndex;not null" json:"user_name"`

	// Password is the bcrypt hash of the dashboard password.
	Password string `gorm:"size:120" json:"-"`

	APIKeyID   string `gorm:"size:60;index" json:"api_key_id,omitempty"`
	APIKeyHash string `gorm:"size:120" json:"-"`

	Active bool `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
