package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
)

// MarkerStore is a GORM implementation of dedup.Store.
type MarkerStore struct {
	db  *gorm.DB
	clk clockport.Clock
}

func NewMarkerStore(db *gorm.DB, clk clockport.Clock) *MarkerStore {
	return &MarkerStore{db: db, clk: clk}
}

func (s *MarkerStore) Get(ctx context.Context, key string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&markerModel{}).
		Where(&markerModel{Key: key}).
		Where("expires_unix > ?", toUnix(s.clk.Now())).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MarkerStore) Set(ctx context.Context, key string, ttl time.Duration) error {
	row := markerModel{Key: key, ExpiresUnix: toUnix(s.clk.Now().Add(ttl))}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"expires_unix"}),
	}).Create(&row).Error
}
