package models

import (
	"time"

	"MagnoliaSOS/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HelperOffer 援助意向。(signal_id, user_id) 上的唯一索引把
// “同一用户对同一信号至多一条”交给存储层兜底，并发重复插入只会留下一行。
type HelperOffer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SignalID  uint      `json:"signalId" gorm:"not null;uniqueIndex:idx_offer_signal_user"`
	UserID    uint      `json:"userId" gorm:"not null;uniqueIndex:idx_offer_signal_user"`
	Confirmed bool      `json:"confirmed" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// HelperOfferView 给创建者看的列表项，带上响应者档案
type HelperOfferView struct {
	HelperOffer
	User *User `json:"user,omitempty"`
}

// UpsertOffer 幂等登记：冲突时不写入，随后读回已存在的那一行。
// 返回的第二个值表示本次调用是否真的新建了记录。
func UpsertOffer(db *gorm.DB, signalID, userID uint) (*HelperOffer, bool, error) {
	offer := HelperOffer{SignalID: signalID, UserID: userID}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signal_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&offer)
	if res.Error != nil {
		return nil, false, errors.Wrap(res.Error, "failed to record offer")
	}
	created := res.RowsAffected > 0

	var stored HelperOffer
	if err := db.Where("signal_id = ? AND user_id = ?", signalID, userID).First(&stored).Error; err != nil {
		return nil, false, errors.Wrap(err, "failed to load offer")
	}
	return &stored, created, nil
}

// GetOffer 取某用户对某信号的意向
func GetOffer(db *gorm.DB, signalID, userID uint) (*HelperOffer, error) {
	var offer HelperOffer
	if err := db.Where("signal_id = ? AND user_id = ?", signalID, userID).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("offer not found")
		}
		return nil, errors.Wrap(err, "failed to load offer")
	}
	return &offer, nil
}

// DeleteOffer 撤回意向
func DeleteOffer(db *gorm.DB, signalID, userID uint) error {
	res := db.Where("signal_id = ? AND user_id = ?", signalID, userID).Delete(&HelperOffer{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete offer")
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("offer not found")
	}
	return nil
}

// ListOffersBySignal 先到先得：按 created_at 升序给创建者一个公平的时间序视图
func ListOffersBySignal(db *gorm.DB, signalID uint) ([]HelperOffer, error) {
	var offers []HelperOffer
	err := db.Where("signal_id = ?", signalID).
		Order("created_at ASC, id ASC").
		Find(&offers).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list offers")
	}
	return offers, nil
}

// ReplaceConfirmedSet 集合替换语义：userIDs 内置 true，其余全部置 false。
// 重复调用同一集合得到同样的结果。
func ReplaceConfirmedSet(db *gorm.DB, signalID uint, userIDs []uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&HelperOffer{}).
			Where("signal_id = ?", signalID).
			Update("confirmed", false).Error; err != nil {
			return errors.Wrap(err, "failed to reset confirmations")
		}
		if len(userIDs) == 0 {
			return nil
		}
		if err := tx.Model(&HelperOffer{}).
			Where("signal_id = ? AND user_id IN ?", signalID, userIDs).
			Update("confirmed", true).Error; err != nil {
			return errors.Wrap(err, "failed to confirm offers")
		}
		return nil
	})
}
