package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/miniapp"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// InitDataHeader carries Telegram.WebApp.initData from the embedded client.
const InitDataHeader = "X-Telegram-Init-Data"

type miniAppProber interface {
	Probe(initData string) (*miniapp.Config, error)
}

func MiniAppConfig(svc miniAppProber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := svc.Probe(r.Header.Get(InitDataHeader))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cfg)
	}
}
