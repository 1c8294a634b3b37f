package sos

import (
	"context"
	"time"

	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/logger"
	"MagnoliaSOS/pkg/util"

	"go.uber.org/zap"
)

// StaleSweep 定时扫描：超龄仍 open 的信号发一次提醒事件，
// 提醒创建者要么确认援助者要么关闭信号。不做任何状态变更。
type StaleSweep struct {
	ctl    *Controller
	maxAge time.Duration
}

func NewStaleSweep(ctl *Controller, maxAge time.Duration) *StaleSweep {
	return &StaleSweep{ctl: ctl, maxAge: maxAge}
}

func (s *StaleSweep) Run(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxAge)
	signals, err := models.ListOpenSignalsOlderThan(s.ctl.db.WithContext(ctx), cutoff)
	if err != nil {
		logger.Warn("stale signal sweep failed", zap.Error(err))
		return
	}
	for i := range signals {
		util.Sig().Emit(models.SigSosStale, &signals[i])
	}
	if len(signals) > 0 {
		logger.Info("stale signal sweep", zap.Int("count", len(signals)))
	}
}
