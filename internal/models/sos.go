package models

import (
	"time"

	"MagnoliaSOS/pkg/errors"
	"MagnoliaSOS/pkg/util"

	"gorm.io/gorm"
)

// 信号状态机：open 为初始态，resolved / cancelled 均为终态，
// 终态之间没有边，也没有回到 open 的路径。
const (
	SignalStatusOpen      = "open"
	SignalStatusResolved  = "resolved"
	SignalStatusCancelled = "cancelled"
)

// SosSignal 求助信号。位置在创建时固定，换地点发新信号。
type SosSignal struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	CreatorID            uint      `json:"creatorId" gorm:"index;not null"`
	Latitude             float64   `json:"latitude" gorm:"not null"`
	Longitude            float64   `json:"longitude" gorm:"not null"`
	Address              string    `json:"address" gorm:"size:512"`
	Title                string    `json:"title" gorm:"size:255"`
	Description          string    `json:"description" gorm:"type:text"`
	Tags                 []uint    `json:"tags" gorm:"serializer:json"`
	Photos               []string  `json:"photos" gorm:"serializer:json"` // 对象存储里的媒体引用，顺序有意义
	Status               string    `json:"status" gorm:"size:16;index;default:open"`
	CancellationReasonID *string   `json:"cancellationReasonId,omitempty" gorm:"size:64"`
	ShortCode            string    `json:"shortCode" gorm:"size:16"` // 通知文案用短码
	CreatedAt            time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// SignalPatch 创建者可改的描述性字段，nil 表示不动
type SignalPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]uint   `json:"tags"`
	Photos      *[]string `json:"photos"`
}

// ValidateNewSignal 写入前校验，违规都以 ValidationError 拒绝
func ValidateNewSignal(s *SosSignal) error {
	if s.CreatorID == 0 {
		return errors.Validation("creatorId is required")
	}
	if s.Latitude == 0 && s.Longitude == 0 {
		return errors.Validation("location is required")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return errors.Validation("latitude out of range")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return errors.Validation("longitude out of range")
	}
	if s.Title == "" {
		return errors.Validation("title is required")
	}
	return nil
}

// CreateSignal 落库并生成短码，status 固定为 open
func CreateSignal(db *gorm.DB, s *SosSignal) error {
	if err := ValidateNewSignal(s); err != nil {
		return err
	}
	s.Status = SignalStatusOpen
	s.CancellationReasonID = nil
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return errors.Wrap(err, "failed to create signal")
		}
		s.ShortCode = util.ShortCode(int64(s.ID))
		if err := tx.Model(s).Update("short_code", s.ShortCode).Error; err != nil {
			return errors.Wrap(err, "failed to set short code")
		}
		return nil
	})
}

// GetSignal 按 ID 取信号
func GetSignal(db *gorm.DB, id uint) (*SosSignal, error) {
	var s SosSignal
	if err := db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("signal %d not found", id)
		}
		return nil, errors.Wrap(err, "failed to load signal")
	}
	return &s, nil
}

// ListSignalsByUser 某用户创建的全部信号，新的在前
func ListSignalsByUser(db *gorm.DB, userID uint) ([]SosSignal, error) {
	var signals []SosSignal
	if err := db.Where("creator_id = ?", userID).Order("created_at DESC").Find(&signals).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list signals")
	}
	return signals, nil
}

// HasOpenSignal 用户是否已有进行中的信号
func HasOpenSignal(db *gorm.DB, userID uint) (bool, error) {
	var count int64
	err := db.Model(&SosSignal{}).
		Where("creator_id = ? AND status = ?", userID, SignalStatusOpen).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to count open signals")
	}
	return count > 0, nil
}

// TransitionStatus 条件更新做状态迁移：WHERE 带上期望的当前状态，
// 两个并发迁移恰好一个生效，输家拿到 rows=0。
func TransitionStatus(db *gorm.DB, id uint, from, to string, reasonID *string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if to == SignalStatusCancelled {
		updates["cancellation_reason_id"] = reasonID
	}
	res := db.Model(&SosSignal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to update signal status")
	}
	return res.RowsAffected > 0, nil
}

// PatchSignalFields 描述性字段更新，仅 open 状态生效（同样走条件更新）
func PatchSignalFields(db *gorm.DB, id uint, patch SignalPatch) (bool, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		if *patch.Title == "" {
			return false, errors.Validation("title cannot be empty")
		}
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Tags != nil {
		updates["tags"] = *patch.Tags
	}
	if patch.Photos != nil {
		updates["photos"] = *patch.Photos
	}
	if len(updates) == 0 {
		return false, errors.Validation("patch is empty")
	}
	res := db.Model(&SosSignal{}).
		Where("id = ? AND status = ?", id, SignalStatusOpen).
		Updates(updates)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to patch signal")
	}
	return res.RowsAffected > 0, nil
}

// ListOpenSignalsOlderThan 超龄仍 open 的信号，供定时提醒扫描
func ListOpenSignalsOlderThan(db *gorm.DB, cutoff time.Time) ([]SosSignal, error) {
	var signals []SosSignal
	err := db.Where("status = ? AND created_at < ?", SignalStatusOpen, cutoff).
		Order("created_at ASC").Find(&signals).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stale signals")
	}
	return signals, nil
}
