package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/peopledesk/peopledesk/pkg/application"
)

type HealthController struct{}

func NewHealthController() application.Controller {
	return &HealthController{}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
}
