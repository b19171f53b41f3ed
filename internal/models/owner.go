package models

import (
	"time"
)

// Owner is the single administrator identity, materialized lazily from
// configuration on the first login attempt.
type Owner struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex" json:"email"`
	AccessCode   string     `json:"-"`
	PasswordHash string     `json:"-"`
	TOTPSecret   string     `gorm:"column:totp_secret" json:"-"`
	TOTPEnabled  bool       `gorm:"column:totp_enabled" json:"totp_enabled"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// LoginSession is a write-only audit record of an owner login attempt.
type LoginSession struct {
	BaseModel
	OwnerEmail string  `gorm:"index" json:"owner_email"`
	Success    bool    `json:"success"`
	IP         string  `json:"ip"`
	Browser    string  `json:"browser"`
	OS         string  `gorm:"column:os" json:"os"`
	Device     string  `json:"device"`
	Country    string  `json:"country,omitempty"`
	Region     string  `json:"region,omitempty"`
	City       string  `json:"city,omitempty"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
}
