package httpapi

import (
	"net/http"

	"github.com/PA-Segura/new-forecast-page-prod/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: requestID(requestLogger(mux)),
	}
}
