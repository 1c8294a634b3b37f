package websocket

// WebSocket消息类型常量
const (
	// 系统消息类型
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeSubscribe    = "subscribe"   // 订阅某个信号的事件
	MessageTypeUnsubscribe  = "unsubscribe" // 退订
	MessageTypeSubscribed   = "subscribed"
	MessageTypeUnsubscribed = "unsubscribed"
	MessageTypeError        = "error"

	// 业务消息类型：信号生命周期事件
	MessageTypeSignalCreated    = "signal_created"
	MessageTypeSignalCancelled  = "signal_cancelled"
	MessageTypeSignalResolved   = "signal_resolved"
	MessageTypeOfferRecorded    = "offer_recorded"
	MessageTypeOfferWithdrawn   = "offer_withdrawn"
	MessageTypeHelpersConfirmed = "helpers_confirmed"
	MessageTypeSignalStale      = "signal_stale"

	// 默认配置值
	DefaultSendBufferSize = 64
	DefaultWriteWait      = 10 // seconds
	DefaultPongWait       = 60 // seconds
	DefaultMaxMessageSize = 4096
)
