package models

// MediaRecord is the durable row created after a derivative set is built.
// It corresponds to the 'media_records' table. The pipeline supplies its
// fields but does not own its lifecycle; the admin back office reads it
// wherever an image is attached to content.
type MediaRecord struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Filename string `gorm:"uniqueIndex;not null" json:"filename"` // canonical base filename
	MimeType string `gorm:"not null" json:"mime_type"`

	OriginalURL string  `gorm:"not null" json:"original_url"`
	LargeURL    *string `gorm:"" json:"large_url,omitempty"`  // Nullable, tier may be omitted
	MediumURL   *string `gorm:"" json:"medium_url,omitempty"` // Nullable
	ThumbURL    *string `gorm:"" json:"thumb_url,omitempty"`  // Nullable

	Width     *int  `gorm:"" json:"width,omitempty"`  // Nullable on legacy rows
	Height    *int  `gorm:"" json:"height,omitempty"` // Nullable on legacy rows
	SizeBytes int64 `gorm:"not null" json:"size_bytes"`

	TakenAt     *int64  `gorm:"index" json:"taken_at,omitempty"` // Nullable, Unix timestamp
	CameraMake  *string `gorm:"" json:"camera_make,omitempty"`   // Nullable
	CameraModel *string `gorm:"" json:"camera_model,omitempty"`  // Nullable

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (MediaRecord) TableName() string {
	return "media_records"
}
