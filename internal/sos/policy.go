package sos

import (
	"context"

	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/errors"

	"gorm.io/gorm"
)

// AccessDecision 访问策略的查询结果
type AccessDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// AccessPolicy 纯查询：判断用户现在能不能发新信号，不产生副作用
type AccessPolicy struct {
	db *gorm.DB
}

func NewAccessPolicy(db *gorm.DB) *AccessPolicy {
	return &AccessPolicy{db: db}
}

// CanCreateSignal 规则：未被封禁，且没有进行中的信号（每人至多一个 open）
func (p *AccessPolicy) CanCreateSignal(ctx context.Context, userID uint) (AccessDecision, error) {
	db := p.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AccessDecision{}, errors.NotFound("user %d not found", userID)
		}
		return AccessDecision{}, errors.Wrap(err, "failed to load user")
	}
	if user.Suspended {
		return AccessDecision{Allowed: false, Reason: "account suspended"}, nil
	}

	hasOpen, err := models.HasOpenSignal(db, userID)
	if err != nil {
		return AccessDecision{}, err
	}
	if hasOpen {
		return AccessDecision{Allowed: false, Reason: "an open signal already exists"}, nil
	}
	return AccessDecision{Allowed: true}, nil
}
