package models

// The content tables below are owned by the storefront CRUD layer; the
// pipeline only reads each row's image reference and writes back the
// canonical URL during migration. Only the columns the jobs touch are
// modelled here.

type Product struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"not null" json:"name"`
	ImageURL *string `gorm:"" json:"image_url,omitempty"` // Nullable
}

func (Product) TableName() string {
	return "products"
}

type HeroSlide struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"not null" json:"title"`
	ImageURL *string `gorm:"" json:"image_url,omitempty"` // Nullable
}

func (HeroSlide) TableName() string {
	return "hero_slides"
}

type NewsPost struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"not null" json:"title"`
	ImageURL *string `gorm:"" json:"image_url,omitempty"` // Nullable
}

func (NewsPost) TableName() string {
	return "news_posts"
}

type Page struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Title    string  `gorm:"not null" json:"title"`
	ImageURL *string `gorm:"" json:"image_url,omitempty"` // Nullable
}

func (Page) TableName() string {
	return "pages"
}
