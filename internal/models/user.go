package models

import "time"

type User struct {
	ID            int64     `json:"id" db:"id"`
	Email         *string   `json:"email,omitempty" db:"email"`
	PasswordHash  *string   `json:"-" db:"password_hash"`
	WalletAddress *string   `json:"wallet_address,omitempty" db:"wallet_address"`
	AuthMethod    string    `json:"auth_method" db:"auth_method"`
	Tier          string    `json:"tier" db:"tier"`
	StorageUsed   int64     `json:"storage_used_bytes" db:"storage_used_bytes"`
	StorageLimit  int64     `json:"storage_limit_bytes" db:"storage_limit_bytes"`
	APIKey        string    `json:"-" db:"api_key"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	LastActive    time.Time `json:"last_active" db:"last_active"`
}
