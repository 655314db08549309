package db

import "time"

// VisitorCounter holds the site-wide visitor total in a single row.
type VisitorCounter struct {
	ID        uint   `gorm:"primaryKey"`
	Count     uint64 `gorm:"default:0"`
	UpdatedAt time.Time
}

// TableName 指定自定义表名。
func (VisitorCounter) TableName() string {
	return "visitor_counters"
}

// SiteVisit 记录已计数的访客，保证同一访客只累加一次。
type SiteVisit struct {
	ID          uint      `gorm:"primaryKey"`
	VisitorID   string    `gorm:"size:64;uniqueIndex"`
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// TableName 指定自定义表名。
func (SiteVisit) TableName() string {
	return "site_visits"
}
