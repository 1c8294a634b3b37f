package listeners

import (
	"context"
	"time"

	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/logger"
	"MagnoliaSOS/pkg/notification"
	"MagnoliaSOS/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const notifyTimeout = 5 * time.Second

// InitNotifyListeners 把事件接到带外通道（短信/推送）。
// 通道客户端未配置时这里是空操作，websocket 扇出不受影响。
func InitNotifyListeners(db *gorm.DB, sms *notification.AliyunSMS, push *notification.JPush) {
	smsCreator := func(signal *models.SosSignal, event string) {
		if !sms.Configured() {
			return
		}
		var creator models.User
		if err := db.First(&creator, signal.CreatorID).Error; err != nil || creator.Phone == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := sms.SendSosAlert(ctx, creator.Phone, signal.ShortCode, event); err != nil {
			logger.Warn("sos sms failed",
				zap.Uint("signal", signal.ID),
				zap.String("event", event),
				zap.Error(err))
		}
	}

	util.Sig().Connect(models.SigSosOffer, func(sender any, params ...any) {
		offer := sender.(*models.HelperOffer)
		signal, err := models.GetSignal(db, offer.SignalID)
		if err != nil {
			return
		}
		smsCreator(signal, "offer_recorded")
	})

	util.Sig().Connect(models.SigSosConfirmed, func(sender any, params ...any) {
		if !push.Configured() {
			return
		}
		signal := sender.(*models.SosSignal)
		if len(params) == 0 {
			return
		}
		userIDs, ok := params[0].([]uint)
		if !ok || len(userIDs) == 0 {
			return
		}
		full, err := models.GetSignal(db, signal.ID)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		err = push.PushToUsers(ctx, userIDs,
			"You are confirmed as a helper",
			full.Title,
			map[string]interface{}{"sosId": full.ID, "shortCode": full.ShortCode})
		if err != nil {
			logger.Warn("sos push failed", zap.Uint("signal", signal.ID), zap.Error(err))
		}
	})

	util.Sig().Connect(models.SigSosStale, func(sender any, params ...any) {
		signal := sender.(*models.SosSignal)
		smsCreator(signal, "still_open")
	})
}
