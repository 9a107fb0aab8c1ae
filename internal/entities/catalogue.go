package entities

type Genre struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:60;not null;uniqueIndex" json:"name"`
	Description string `gorm:"size:500" json:"description,omitempty"`

	Audit
}

func (Genre) TableName() string {
	return "genres"
}

type Publisher struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`

	Audit
}

func (Publisher) TableName() string {
	return "publishers"
}
