// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username        string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string     `json:"-" gorm:"size:255;not null"`
	UserType        UserType   `json:"user_type" gorm:"type:varchar(20);default:'member'"`
	Status          UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	WalletBalance   float64    `json:"wallet_balance" gorm:"type:decimal(10,2);default:0"`
	UPIHandle       string     `json:"upi_handle,omitempty" gorm:"size:100"`
	ProfileData     JSONB      `json:"profile_data" gorm:"type:jsonb"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	// Relationships
	Vouchers  []Voucher     `json:"vouchers,omitempty" gorm:"foreignKey:SellerID"`
	Purchases []Transaction `json:"purchases,omitempty" gorm:"foreignKey:BuyerID"`
	Payouts   []Payout      `json:"payouts,omitempty" gorm:"foreignKey:SellerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}
