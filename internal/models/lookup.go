package models

import (
	"context"
	"time"

	"MagnoliaSOS/pkg/cache"
	"MagnoliaSOS/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CancellationReason 取消原因枚举，ID 是稳定的字符串码
type CancellationReason struct {
	ID      string `json:"id" gorm:"primaryKey;size:64"`
	Label   string `json:"label" gorm:"size:255"`
	LabelZh string `json:"labelZh" gorm:"size:255"`
	Sort    int    `json:"-"`
}

// SosTag 信号标签（"medical"、"lost" 等）
type SosTag struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:64;uniqueIndex"`
	Sort int    `json:"-"`
}

// SeedLookups 幂等写入固定枚举，启动时调用
func SeedLookups(db *gorm.DB) error {
	reasons := []CancellationReason{
		{ID: "no_longer_needed", Label: "Help is no longer needed", LabelZh: "不再需要帮助", Sort: 1},
		{ID: "resolved_on_site", Label: "Resolved on site", LabelZh: "已在现场解决", Sort: 2},
		{ID: "false_alarm", Label: "False alarm", LabelZh: "误报", Sort: 3},
		{ID: "photo_unclear", Label: "Photo is unclear", LabelZh: "照片不清晰", Sort: 4},
		{ID: "duplicate", Label: "Duplicate signal", LabelZh: "重复信号", Sort: 5},
		{ID: "other", Label: "Other", LabelZh: "其他", Sort: 99},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&reasons).Error; err != nil {
		return err
	}

	tags := []SosTag{
		{Name: "medical", Sort: 1},
		{Name: "accident", Sort: 2},
		{Name: "lost", Sort: 3},
		{Name: "animal", Sort: 4},
		{Name: "transport", Sort: 5},
		{Name: "other", Sort: 99},
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error
}

const (
	cacheKeyReasons = "lookup:cancellation_reasons"
	cacheKeyTags    = "lookup:sos_tags"
	lookupCacheTTL  = 10 * time.Minute
)

// ListCancellationReasons 枚举查询走缓存，miss 时回源数据库
func ListCancellationReasons(ctx context.Context, db *gorm.DB, c cache.Cache) ([]CancellationReason, error) {
	if c != nil {
		if v, ok := c.Get(ctx, cacheKeyReasons); ok {
			if reasons, ok := v.([]CancellationReason); ok {
				return reasons, nil
			}
		}
	}
	var reasons []CancellationReason
	if err := db.Order("sort ASC").Find(&reasons).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list cancellation reasons")
	}
	if c != nil {
		_ = c.Set(ctx, cacheKeyReasons, reasons, lookupCacheTTL)
	}
	return reasons, nil
}

// ListSosTags 标签列表，同样走缓存
func ListSosTags(ctx context.Context, db *gorm.DB, c cache.Cache) ([]SosTag, error) {
	if c != nil {
		if v, ok := c.Get(ctx, cacheKeyTags); ok {
			if tags, ok := v.([]SosTag); ok {
				return tags, nil
			}
		}
	}
	var tags []SosTag
	if err := db.Order("sort ASC").Find(&tags).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	if c != nil {
		_ = c.Set(ctx, cacheKeyTags, tags, lookupCacheTTL)
	}
	return tags, nil
}

// CancellationReasonExists 取消前校验 reasonId 在枚举内
func CancellationReasonExists(db *gorm.DB, id string) (bool, error) {
	var count int64
	if err := db.Model(&CancellationReason{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check cancellation reason")
	}
	return count > 0, nil
}
