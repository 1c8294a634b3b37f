package i18n

import (
	"embed"
	"encoding/json"
	"log"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// I18nSupport 国际化支持结构体
type I18nSupport struct {
	bundle *i18n.Bundle
}

// NewI18nSupport 初始化国际化支持，语言文件打包进二进制
func NewI18nSupport(defaultLang string) (*I18nSupport, error) {
	bundle := i18n.NewBundle(language.MustParse(defaultLang))
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, name := range []string{"locales/en.json", "locales/zh.json"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, name); err != nil {
			log.Printf("failed to load %s: %v", name, err)
		}
	}

	return &I18nSupport{bundle: bundle}, nil
}

// T 获取翻译文本
func (i *I18nSupport) T(languageTag, key string, templateData map[string]interface{}) string {
	localizer := i18n.NewLocalizer(i.bundle, languageTag)

	translation, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		return key // 返回键名作为默认值
	}
	return translation
}

var (
	defaultMu      sync.RWMutex
	defaultSupport *I18nSupport
)

// SetDefault 设置全局实例，response 层用它本地化错误文案
func SetDefault(s *I18nSupport) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSupport = s
}

// Default 返回全局实例，可能为 nil
func Default() *I18nSupport {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSupport
}
