package models

import "time"

// User - учетная запись покупателя.
// RefreshToken хранится прямо на записи: у пользователя
// одновременно живет ровно один refresh-токен.
type User struct {
	BaseModel
	Name         string     `gorm:"not null" json:"name"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Avatar       string     `gorm:"default:''" json:"avatar"`
	Mobile       string     `gorm:"default:''" json:"mobile"`
	Role         UserRole   `gorm:"type:varchar(16);default:'USER'" json:"role"`
	Status       UserStatus `gorm:"type:varchar(16);default:'active'" json:"status"`
	IsVerified   bool       `gorm:"default:false" json:"is_verified"`

	RefreshToken string     `gorm:"default:''" json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`

	ForgotPasswordOTP       string     `gorm:"default:''" json:"-"`
	ForgotPasswordOTPExpiry *time.Time `json:"-"`
}
