package models

import (
	"context"
	"time"

	"github.com/lumeray/royalty_backend/config"
)

// Release is a catalog entry owned by the release-management side of the
// platform. The ingestion core reads it only as
// (artist_name, release_name) -> (artist_id, release_id).
type Release struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ArtistId    int       `gorm:"index;not null" json:"artist_id"`
	ArtistName  string    `gorm:"size:255;not null" json:"artist_name"`
	ReleaseName string    `gorm:"size:255;not null" json:"release_name"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetAllReleases loads the whole catalog in one pass, lowest id first.
// Enumeration order matters: the release index keeps the first entry for a
// duplicate normalized key, so ordering by id makes the tie-break
// deterministic (lowest release id wins).
func GetAllReleases(ctx context.Context) ([]*Release, error) {
	db := config.GetDB()
	var releases []*Release
	err := db.WithContext(ctx).
		Select("id", "artist_id", "artist_name", "release_name").
		Order("id ASC").
		Find(&releases).Error
	if err != nil {
		return nil, err
	}
	return releases, nil
}
