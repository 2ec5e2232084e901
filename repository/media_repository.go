package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/atelier-dev/storefrontbackend/media"
	"github.com/atelier-dev/storefrontbackend/models"
)

// MediaRepository handles database operations for MediaRecord entities
type MediaRepository struct {
	DB *gorm.DB
}

// NewMediaRepository creates a new instance of MediaRepository
func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{DB: db}
}

// Create inserts a new media record
func (r *MediaRepository) Create(record *models.MediaRecord) error {
	if err := r.DB.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create media record for %s: %w", record.Filename, err)
	}
	return nil
}

// GetByID retrieves a media record by primary key
func (r *MediaRepository) GetByID(id uint) (*models.MediaRecord, error) {
	var record models.MediaRecord
	err := r.DB.First(&record, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get media record %d: %w", id, err)
	}
	return &record, nil
}

// List retrieves all media records, newest first
func (r *MediaRepository) List() ([]models.MediaRecord, error) {
	var records []models.MediaRecord
	if err := r.DB.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list media records: %w", err)
	}
	return records, nil
}

// ListMissingDimensions retrieves records with a null width or height,
// which the dimension-repair job re-derives from stored originals
func (r *MediaRepository) ListMissingDimensions() ([]models.MediaRecord, error) {
	var records []models.MediaRecord
	err := r.DB.Where("width IS NULL OR height IS NULL").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list media records missing dimensions: %w", err)
	}
	return records, nil
}

// UpdateDimensions writes re-derived pixel dimensions onto a record
func (r *MediaRepository) UpdateDimensions(id uint, width, height int) error {
	result := r.DB.Model(&models.MediaRecord{}).Where("id = ?", id).
		Updates(map[string]interface{}{"width": width, "height": height})
	if result.Error != nil {
		return fmt.Errorf("failed to update dimensions for media record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateDerivatives points a record at a freshly built derivative set.
// Reprocessing supersedes the old set; it never mutates stored files.
func (r *MediaRepository) UpdateDerivatives(id uint, set media.DerivativeSet) error {
	updates := map[string]interface{}{
		"original_url": set.Original.URL,
		"width":        set.Original.Width,
		"height":       set.Original.Height,
		"size_bytes":   set.Original.Size,
		"large_url":    urlOrNil(set.Large),
		"medium_url":   urlOrNil(set.Medium),
		"thumb_url":    urlOrNil(set.Thumb),
	}

	result := r.DB.Model(&models.MediaRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update derivatives for media record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a media record by id
func (r *MediaRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.MediaRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete media record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func urlOrNil(d *media.Derivative) interface{} {
	if d == nil {
		return nil
	}
	return d.URL
}
