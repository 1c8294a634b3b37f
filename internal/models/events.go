package models

// 生命周期事件信号名，控制器 Emit，listeners 消费
const (
	SigSosCreated        = "sos.created"
	SigSosCancelled      = "sos.cancelled"
	SigSosResolved       = "sos.resolved"
	SigSosOffer          = "sos.offer"
	SigSosOfferWithdrawn = "sos.offer_withdrawn"
	SigSosConfirmed      = "sos.confirmed"
	SigSosStale          = "sos.stale"
)
