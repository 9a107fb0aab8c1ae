package entities

import "time"

type BookList struct {
	ID     uint    `gorm:"primaryKey" json:"id"`
	Name   string  `gorm:"size:140;not null" json:"name"`
	UserID uint    `gorm:"index;not null" json:"user_id"`
	Books  []*Book `gorm:"many2many:book_list_books;constraint:OnDelete:CASCADE" json:"books"`

	Audit
}

func (BookList) TableName() string {
	return "book_lists"
}

type NotificationType string

const (
	NotificationFriendship NotificationType = "FRIENDSHIP"
	NotificationReview     NotificationType = "REVIEW"
)

// Notification is addressed to UserID. FriendID and BookID point at the
// user and book that triggered it; they carry no foreign key so a deleted
// friend does not block deletion of the recipient.
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	NotificationType NotificationType `gorm:"size:20;not null" json:"notification_type"`
	UserID           uint             `gorm:"index;not null" json:"user_id"`
	FriendID         *uint            `json:"friend_id,omitempty"`
	BookID           *uint            `json:"book_id,omitempty"`

	Audit
}

func (Notification) TableName() string {
	return "notifications"
}

// AccessToken records an issued JWT by the SHA-256 of its compact form.
type AccessToken struct {
	TokenHash string    `gorm:"primaryKey;size:64" json:"-"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Valid     bool      `gorm:"not null" json:"valid"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`

	Audit
}

func (AccessToken) TableName() string {
	return "access_tokens"
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{
		&Publisher{},
		&Genre{},
		&Author{},
		&Book{},
		&User{},
		&Review{},
		&BookList{},
		&Notification{},
		&AccessToken{},
	}
}
