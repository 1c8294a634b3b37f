package notification

import (
	"context"
	"fmt"
)

type AliyunSMSConfig struct {
	SignName     string
	TemplateCode string
}

// AliyunSMSClient 便于替换/注入的发送接口（适配真实 SDK）
type AliyunSMSClient interface {
	Send(ctx context.Context, phone, sign, template string, params map[string]string) error
}

type AliyunSMS struct {
	cfg AliyunSMSConfig
	cli AliyunSMSClient
}

func NewAliyunSMS(cfg AliyunSMSConfig, cli AliyunSMSClient) *AliyunSMS {
	return &AliyunSMS{cfg: cfg, cli: cli}
}

func (a *AliyunSMS) Configured() bool {
	return a != nil && a.cli != nil && a.cfg.TemplateCode != ""
}

// SendSosAlert 给创建者手机发信号状态短信，模板参数带短码和事件名
func (a *AliyunSMS) SendSosAlert(ctx context.Context, phone, shortCode, event string) error {
	if a.cli == nil {
		return fmt.Errorf("AliyunSMSClient not configured")
	}
	params := map[string]string{"code": shortCode, "event": event}
	return a.cli.Send(ctx, phone, a.cfg.SignName, a.cfg.TemplateCode, params)
}
