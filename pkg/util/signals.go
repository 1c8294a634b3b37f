package util

import "sync"

// SignalHandler 信号处理函数：sender 是事件主体，params 为附加参数
type SignalHandler func(sender any, params ...any)

// SignalHub 进程内事件总线，组件通过信号名解耦
type SignalHub struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var (
	sigOnce sync.Once
	sigHub  *SignalHub
)

// Sig 返回全局信号总线
func Sig() *SignalHub {
	sigOnce.Do(func() {
		sigHub = &SignalHub{handlers: make(map[string][]SignalHandler)}
	})
	return sigHub
}

// Connect 注册信号处理函数
func (h *SignalHub) Connect(name string, handler SignalHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = append(h.handlers[name], handler)
}

// Emit 同步触发信号，处理函数按注册顺序执行
func (h *SignalHub) Emit(name string, sender any, params ...any) {
	h.mu.RLock()
	hs := make([]SignalHandler, len(h.handlers[name]))
	copy(hs, h.handlers[name])
	h.mu.RUnlock()
	for _, fn := range hs {
		fn(sender, params...)
	}
}

// Disconnect 移除某个信号的全部处理函数（测试用）
func (h *SignalHub) Disconnect(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers, name)
}
