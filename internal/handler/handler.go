package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ceureg/ceureg/internal/config"
	"github.com/ceureg/ceureg/internal/database"
	"github.com/ceureg/ceureg/internal/logger"
	"github.com/ceureg/ceureg/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	db          *database.Postgres
	log         *logger.Logger
	cfg         *config.Config
	deliverySvc *service.DeliveryService
}

// New creates a new Handler instance
func New(db *database.Postgres, log *logger.Logger, cfg *config.Config, deliverySvc *service.DeliveryService) *Handler {
	return &Handler{
		db:          db,
		log:         log,
		cfg:         cfg,
		deliverySvc: deliverySvc,
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}
