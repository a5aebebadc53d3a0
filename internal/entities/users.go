package entities

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleReader UserRole = "reader"
	UserRoleAuthor UserRole = "author"
	UserRoleAdmin  UserRole = "admin"
)

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusRejected UserStatus = "rejected"
	UserStatusBanned   UserStatus = "banned"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:64" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	AvatarURL    string     `gorm:"size:2048" json:"avatar_url,omitempty"`
	Role         UserRole   `gorm:"size:20;default:'reader';index" json:"role"`
	Status       UserStatus `gorm:"size:20;default:'active';index" json:"status"`

	// Moderation state
	IsBanned      bool       `gorm:"default:false" json:"is_banned"`
	BanReason     string     `gorm:"size:500" json:"ban_reason,omitempty"`
	BannedAt      *time.Time `json:"banned_at,omitempty"`
	WarningsCount int        `gorm:"default:0" json:"warnings_count"`
	Warnings      []Warning  `gorm:"foreignKey:UserID" json:"warnings,omitempty"`

	// API token for non-browser clients, stored hashed. Hidden from JSON.
	TokenHash string `gorm:"index;size:64" json:"-"`

	// Login tracking / lockout
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Warning is a notice filed against a user, either manually by an admin
// or automatically for an overdue loan.
type Warning struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	AdminID   *uint     `gorm:"index" json:"admin_id,omitempty"`
	LoanID    *uint     `gorm:"index" json:"loan_id,omitempty"`
	Message   string    `gorm:"size:500" json:"message"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (Warning) TableName() string {
	return "warnings"
}
