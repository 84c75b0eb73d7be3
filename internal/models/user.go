package models

import "time"

type User struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	IsHelper    bool      `gorm:"not null;default:false" json:"is_helper"`
	BankAccount *string   `json:"bank_account,omitempty"`
	PayoutEmail *string   `json:"payout_email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasPayoutMethod reports whether at least one disbursement destination is
// on file.
func (u *User) HasPayoutMethod() bool {
	if u.BankAccount != nil && *u.BankAccount != "" {
		return true
	}
	return u.PayoutEmail != nil && *u.PayoutEmail != ""
}

// PayoutDestination returns the preferred disbursement destination, bank
// account first.
func (u *User) PayoutDestination() string {
	if u.BankAccount != nil && *u.BankAccount != "" {
		return *u.BankAccount
	}
	if u.PayoutEmail != nil && *u.PayoutEmail != "" {
		return *u.PayoutEmail
	}
	return ""
}
