package model

import "github.com/google/uuid"

type Category struct {
	BaseModel
	Name          string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"name" validate:"required,min=2,max=100"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`
	Image         string     `gorm:"type:varchar(500)" json:"image,omitempty"`
	IsSubcategory bool       `gorm:"default:false" json:"isSubcategory"`
	ParentID      *uuid.UUID `gorm:"type:uuid;index" json:"parentCategory,omitempty"`
}
