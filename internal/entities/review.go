package entities

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"size:140;not null" json:"title"`
	Content string `gorm:"size:2000" json:"content"`
	Rating  int    `gorm:"not null" json:"rating"`
	BookID  uint   `gorm:"index;not null" json:"book_id"`
	Book    *Book  `gorm:"foreignKey:BookID" json:"book,omitempty"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	User    *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Audit
}

func (Review) TableName() string {
	return "reviews"
}
