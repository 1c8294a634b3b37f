package listeners

import (
	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/logger"
	"MagnoliaSOS/pkg/util"
	"MagnoliaSOS/pkg/websocket"

	"go.uber.org/zap"
)

// InitSosListeners 把生命周期事件接到 websocket 扇出。
// 核心只 Emit，推送细节都在这一层，换通知通道不动控制器。
func InitSosListeners(hub *websocket.Hub) {
	util.Sig().Connect(models.SigSosCreated, func(sender any, params ...any) {
		signal := sender.(*models.SosSignal)
		logger.Info("sos signal created",
			zap.Uint("signal", signal.ID),
			zap.Uint("creator", signal.CreatorID),
			zap.String("short_code", signal.ShortCode))
		hub.BroadcastSignalEvent(signal.ID, websocket.MessageTypeSignalCreated, signal)
	})

	util.Sig().Connect(models.SigSosCancelled, func(sender any, params ...any) {
		signal := sender.(*models.SosSignal)
		logger.Info("sos signal cancelled",
			zap.Uint("signal", signal.ID),
			zap.Stringp("reason", signal.CancellationReasonID))
		hub.BroadcastSignalEvent(signal.ID, websocket.MessageTypeSignalCancelled, signal)
	})

	util.Sig().Connect(models.SigSosResolved, func(sender any, params ...any) {
		signal := sender.(*models.SosSignal)
		logger.Info("sos signal resolved", zap.Uint("signal", signal.ID))
		hub.BroadcastSignalEvent(signal.ID, websocket.MessageTypeSignalResolved, signal)
	})

	util.Sig().Connect(models.SigSosOffer, func(sender any, params ...any) {
		offer := sender.(*models.HelperOffer)
		hub.BroadcastSignalEvent(offer.SignalID, websocket.MessageTypeOfferRecorded, offer)
	})

	util.Sig().Connect(models.SigSosOfferWithdrawn, func(sender any, params ...any) {
		offer := sender.(*models.HelperOffer)
		hub.BroadcastSignalEvent(offer.SignalID, websocket.MessageTypeOfferWithdrawn, offer)
	})

	util.Sig().Connect(models.SigSosConfirmed, func(sender any, params ...any) {
		signal := sender.(*models.SosSignal)
		hub.BroadcastSignalEvent(signal.ID, websocket.MessageTypeHelpersConfirmed, params)
	})

	util.Sig().Connect(models.SigSosStale, func(sender any, params ...any) {
		signal := sender.(*models.SosSignal)
		logger.Warn("sos signal stale",
			zap.Uint("signal", signal.ID),
			zap.Time("created_at", signal.CreatedAt))
		hub.BroadcastSignalEvent(signal.ID, websocket.MessageTypeSignalStale, signal)
	})
}
