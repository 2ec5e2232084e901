package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// ContentTable names one storefront table the migration jobs iterate and
// the column its image reference lives in.
type ContentTable struct {
	Name        string
	ImageColumn string
}

// ContentTables maps the admin-facing table keys to their schema location.
// The jobs only ever read ids and image references; the CRUD layer owns
// everything else about these tables.
var ContentTables = map[string]ContentTable{
	"products":    {Name: "products", ImageColumn: "image_url"},
	"hero_slides": {Name: "hero_slides", ImageColumn: "image_url"},
	"news_posts":  {Name: "news_posts", ImageColumn: "image_url"},
	"pages":       {Name: "pages", ImageColumn: "image_url"},
}

// ContentRow is the slice of a content row the migration jobs work with.
type ContentRow struct {
	ID       uint    `gorm:"column:id"`
	ImageRef *string `gorm:"column:image_ref"`
}

// ContentRepository reads and updates image references on content tables
type ContentRepository struct {
	DB *gorm.DB
}

// NewContentRepository creates a new instance of ContentRepository
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

// ListRows retrieves every row's id and image reference for one table
func (r *ContentRepository) ListRows(table ContentTable) ([]ContentRow, error) {
	var rows []ContentRow
	err := r.DB.Table(table.Name).
		Select(fmt.Sprintf("id, %s AS image_ref", table.ImageColumn)).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rows from %s: %w", table.Name, err)
	}
	return rows, nil
}

// UpdateImageRef points one content row at a canonical URL
func (r *ContentRepository) UpdateImageRef(table ContentTable, id uint, url string) error {
	result := r.DB.Table(table.Name).Where("id = ?", id).
		Update(table.ImageColumn, url)
	if result.Error != nil {
		return fmt.Errorf("failed to update image reference on %s row %d: %w", table.Name, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
