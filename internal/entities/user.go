package entities

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleUser   UserRole = "USER"
	RoleAuthor UserRole = "AUTHOR"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleAuthor:
		return true
	}
	return false
}

type User struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Email            string          `gorm:"size:60;uniqueIndex;not null" json:"email"`
	Password         string          `gorm:"size:255;not null" json:"-"`
	LoginCount       int             `gorm:"not null;default:0" json:"login_count"`
	LoggedAt         *time.Time      `json:"logged_at,omitempty"`
	Name             string          `gorm:"size:60" json:"name"`
	FirstLastName    string          `gorm:"size:60" json:"first_last_name"`
	SecondLastName   string          `gorm:"size:60" json:"second_last_name,omitempty"`
	DateOfBirth      *datatypes.Date `gorm:"type:date" json:"date_of_birth,omitempty"`
	UserRole         UserRole        `gorm:"size:10;not null;default:USER;index" json:"user_role"`
	PhoneNumber      string          `gorm:"size:20" json:"phone_number,omitempty"`
	PhoneCountryCode string          `gorm:"size:5" json:"phone_country_code,omitempty"`
	Username         *string         `gorm:"size:15;uniqueIndex" json:"username,omitempty"`
	ProfilePicture   string          `gorm:"size:2048" json:"profile_picture,omitempty"`
	AuthorID         *uint           `gorm:"index" json:"author_id,omitempty"`
	Author           *Author         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	// Lockout bookkeeping, never serialized
	FailedLoginCount   int        `gorm:"not null;default:0" json:"-"`
	FirstFailedLoginAt *time.Time `json:"-"`
	LockedUntil        *time.Time `json:"-"`

	Friends       []*User        `gorm:"many2many:friendships;joinForeignKey:UserID;joinReferences:FriendID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews       []Review       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Notifications []Notification `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	BookLists     []BookList     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AccessTokens  []AccessToken  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	FullName string `gorm:"-" json:"full_name"`

	Audit
}

func (User) TableName() string {
	return "users"
}

// PendingFirstExpr treats accounts that were created disabled and never
// touched since as awaiting activation.
func (User) PendingFirstExpr() string {
	return "CASE WHEN disabled = true AND created_at = modified_at THEN 0 ELSE 1 END"
}

func (u *User) AfterFind(tx *gorm.DB) error {
	u.FullName = fullName(u.Name, u.FirstLastName, u.SecondLastName)
	return nil
}

func (u *User) AfterCreate(tx *gorm.DB) error {
	return u.AfterFind(tx)
}

func (u *User) IsAdmin() bool {
	return u.UserRole == RoleAdmin
}

// IsLocked reports whether the account is inside a lockout window.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// UsernameValue returns the username or the empty string.
func (u *User) UsernameValue() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}
