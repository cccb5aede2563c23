package models

// Category is a browsable catalog category. Products reference categories by
// name in their Categories list.
type Category struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id" yaml:"-"`
	Name         string `gorm:"unique;not null" json:"name" yaml:"name"`
	Slug         string `gorm:"unique;not null" json:"slug" yaml:"slug"`
	Icon         string `json:"icon,omitempty" yaml:"icon"`
	Description  string `json:"description,omitempty" yaml:"description"`
	ProductCount int    `gorm:"-" json:"productCount" yaml:"-"`
}
