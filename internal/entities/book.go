package entities

type BookStatus string

const (
	BookStatusActive   BookStatus = "ACTIVE"
	BookStatusPending  BookStatus = "PENDING"
	BookStatusRejected BookStatus = "REJECTED"
	BookStatusDeleted  BookStatus = "DELETED"
)

func (s BookStatus) Valid() bool {
	switch s {
	case BookStatusActive, BookStatusPending, BookStatusRejected, BookStatusDeleted:
		return true
	}
	return false
}

type Book struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:140;not null;index" json:"title"`
	Overview        string     `gorm:"size:1200" json:"overview,omitempty"`
	ISBN            string     `gorm:"size:20;index" json:"isbn,omitempty"`
	PublicationYear int        `json:"publication_year,omitempty"`
	Pages           int        `json:"pages,omitempty"`
	Cover           string     `gorm:"size:2048" json:"cover,omitempty"`
	Language        string     `gorm:"size:30" json:"language,omitempty"`
	Status          BookStatus `gorm:"size:10;not null;default:PENDING;index" json:"status"`
	PublisherID     *uint      `gorm:"index" json:"publisher_id,omitempty"`
	Publisher       *Publisher `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`
	Authors         []*Author  `gorm:"many2many:author_books;constraint:OnDelete:CASCADE" json:"authors,omitempty"`
	Genres          []*Genre   `gorm:"many2many:book_genres;constraint:OnDelete:CASCADE" json:"genres,omitempty"`
	Reviews         []Review   `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`

	Audit
}

func (Book) TableName() string {
	return "books"
}

func (Book) PendingFirstExpr() string {
	return "CASE WHEN status = 'PENDING' THEN 0 ELSE 1 END"
}
