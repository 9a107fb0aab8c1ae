package entities

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Author struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:60;not null;index" json:"name"`
	FirstLastName  string          `gorm:"size:60" json:"first_last_name"`
	SecondLastName string          `gorm:"size:60" json:"second_last_name,omitempty"`
	DateOfBirth    *datatypes.Date `gorm:"type:date" json:"date_of_birth,omitempty"`
	Country        string          `gorm:"size:60" json:"country,omitempty"`
	City           string          `gorm:"size:60" json:"city,omitempty"`
	Biography      string          `gorm:"size:1200" json:"biography,omitempty"`
	Picture        string          `gorm:"size:2048" json:"picture,omitempty"`
	Books          []*Book         `gorm:"many2many:author_books;constraint:OnDelete:CASCADE" json:"books,omitempty"`

	FullName string `gorm:"-" json:"full_name"`

	Audit
}

func (Author) TableName() string {
	return "authors"
}

func (a *Author) AfterFind(tx *gorm.DB) error {
	a.FullName = fullName(a.Name, a.FirstLastName, a.SecondLastName)
	return nil
}

func (a *Author) AfterCreate(tx *gorm.DB) error {
	return a.AfterFind(tx)
}
