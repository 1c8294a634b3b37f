package notification

import (
	"context"
	"fmt"
)

type JPushConfig struct {
	AppKey       string
	MasterSecret string
}

type JPushClient interface {
	Push(ctx context.Context, title, content string, audience map[string]interface{}, extras map[string]interface{}) error
}

type JPush struct {
	cfg JPushConfig
	cli JPushClient
}

func NewJPush(cfg JPushConfig, cli JPushClient) *JPush { return &JPush{cfg: cfg, cli: cli} }

func (j *JPush) Configured() bool {
	return j != nil && j.cli != nil && j.cfg.AppKey != ""
}

// PushToUsers 按用户别名推送，别名约定为 "u<userID>"
func (j *JPush) PushToUsers(ctx context.Context, userIDs []uint, title, content string, extras map[string]interface{}) error {
	if j.cli == nil {
		return fmt.Errorf("JPushClient not configured")
	}
	alias := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		alias = append(alias, fmt.Sprintf("u%d", id))
	}
	aud := map[string]interface{}{"alias": alias}
	return j.cli.Push(ctx, title, content, aud, extras)
}
