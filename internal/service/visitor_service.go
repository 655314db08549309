package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tribuna/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const visitorCounterID = 1

// VisitorService 维护全站访客计数，每个访客 ID 只累加一次。
type VisitorService struct {
	db *gorm.DB
}

// NewVisitorService creates a VisitorService.
func NewVisitorService(gdb *gorm.DB) *VisitorService {
	return &VisitorService{db: gdb}
}

// RecordVisit registers visitorID and returns the current total.
func (s *VisitorService) RecordVisit(ctx context.Context, visitorID string, now time.Time) (uint64, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return 0, errors.New("invalid visitor id")
	}

	var total uint64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visit := db.SiteVisit{VisitorID: visitorID, FirstSeenAt: now, LastSeenAt: now}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&visit)
		if insert.Error != nil {
			return insert.Error
		}

		if insert.RowsAffected == 0 {
			if err := tx.Model(&db.SiteVisit{}).
				Where("visitor_id = ?", visitorID).
				Update("last_seen_at", now).Error; err != nil {
				return err
			}
		} else {
			if err := ensureCounter(tx); err != nil {
				return err
			}
			if err := tx.Model(&db.VisitorCounter{}).
				Where("id = ?", visitorCounterID).
				Updates(map[string]interface{}{
					"count":      gorm.Expr("count + 1"),
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}

		count, err := readCounter(tx)
		if err != nil {
			return err
		}
		total = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Count returns the current total; zero before the first visit.
func (s *VisitorService) Count(ctx context.Context) (uint64, error) {
	return readCounter(s.db.WithContext(ctx))
}

func ensureCounter(tx *gorm.DB) error {
	counter := db.VisitorCounter{ID: visitorCounterID}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&counter).Error
}

func readCounter(tx *gorm.DB) (uint64, error) {
	var counter db.VisitorCounter
	err := tx.Where("id = ?", visitorCounterID).First(&counter).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return counter.Count, nil
}
