package models

import (
	"time"
)

// Verification channels. The same selector is used by the verification
// endpoints and by broadcast targeting.
const (
	ChannelPhone = "phone"
	ChannelEmail = "email"
)

// Customer represents one registrant of the loyalty program.
type Customer struct {
	BaseModel
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `gorm:"uniqueIndex" json:"phone"`
	Email       string     `json:"email,omitempty"`
	Country     string     `json:"country"`
	AddressLine string     `json:"address_line,omitempty"`
	City        string     `json:"city,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	Preferences string     `json:"preferences,omitempty"`

	DiscountCode string `gorm:"uniqueIndex" json:"discount_code"`

	IsPhoneVerified       bool    `json:"is_phone_verified"`
	IsEmailVerified       bool    `json:"is_email_verified"`
	IsVerified            bool    `json:"is_verified"`
	PhoneVerificationCode *string `json:"-"`
	EmailVerificationCode *string `json:"-"`

	ConsentSMS     bool       `gorm:"column:consent_sms" json:"consent_sms"`
	ConsentEmail   bool       `json:"consent_email"`
	ConsentGivenAt *time.Time `json:"consent_given_at,omitempty"`
}

// ChannelVerified reports whether the given channel is already confirmed.
func (c *Customer) ChannelVerified(channel string) bool {
	if channel == ChannelPhone {
		return c.IsPhoneVerified
	}
	return c.IsEmailVerified
}
