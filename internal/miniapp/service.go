// Package miniapp reports whether a request comes from inside the Telegram
// mini-app and, if so, how the client should dress itself.
package miniapp

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/telegram"
)

const (
	HeaderColor     = "#ff6b35"
	BackgroundColor = "#f8f9fa"
)

type Contacts struct {
	Instagram string `json:"instagram,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Config is the probe answer. Outside the mini-app only Embedded is set.
type Config struct {
	Embedded          bool         `json:"embedded"`
	Expand            bool         `json:"expand,omitempty"`
	HeaderColor       string       `json:"header_color,omitempty"`
	BackgroundColor   string       `json:"background_color,omitempty"`
	ShowContactFooter bool         `json:"show_contact_footer,omitempty"`
	Contacts          *Contacts    `json:"contacts,omitempty"`
	User              *User        `json:"user,omitempty"`
	Locale            enums.Locale `json:"locale,omitempty"`
}

type Service struct {
	botToken string
	maxAge   time.Duration
	contacts Contacts
	now      func() time.Time
}

func NewService(tgCfg config.TelegramConfig, storefront config.StorefrontConfig) *Service {
	return &Service{
		botToken: strings.TrimSpace(tgCfg.BotToken),
		maxAge:   tgCfg.InitDataMaxAge,
		contacts: Contacts{
			Instagram: storefront.InstagramURL,
			Telegram:  storefront.TelegramURL,
			Phone:     storefront.Phone,
		},
		now: time.Now,
	}
}

// Probe validates initData when present. Blank initData is the standalone
// web mode and never an error.
func (s *Service) Probe(initData string) (*Config, error) {
	initData = strings.TrimSpace(initData)
	if initData == "" {
		return &Config{Embedded: false}, nil
	}

	data, err := telegram.ValidateInitData(initData, s.botToken, s.maxAge, s.now())
	if err != nil {
		return nil, err
	}

	contacts := s.contacts
	cfg := &Config{
		Embedded:          true,
		Expand:            true,
		HeaderColor:       HeaderColor,
		BackgroundColor:   BackgroundColor,
		ShowContactFooter: true,
		Contacts:          &contacts,
	}
	if data.User != nil {
		cfg.User = &User{
			ID:           data.User.ID,
			FirstName:    data.User.FirstName,
			LastName:     data.User.LastName,
			Username:     data.User.Username,
			LanguageCode: data.User.LanguageCode,
		}
		if locale, ok := i18n.MatchAcceptLanguage(data.User.LanguageCode); ok {
			cfg.Locale = locale
		}
	}
	return cfg, nil
}
