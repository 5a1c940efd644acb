package models

// Employee represents a rateable store employee ("dipendente").
// Photo holds the bare filename under the upload directory.
type Employee struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"type:varchar(100)" validate:"required,min=1,max=100"`
	Photo string `json:"photo" gorm:"type:varchar(255)"`
	Store string `json:"store" gorm:"type:varchar(100);index"`
}
