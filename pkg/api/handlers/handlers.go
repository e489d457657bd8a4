package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cbodonnell/cabinet/client/game"
	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
)

// Cabinet is what the operator API can see and do. Implementations run
// each call on the cabinet's event loop.
type Cabinet interface {
	Snapshot(ctx context.Context) (*types.Snapshot, error)
	Scores(ctx context.Context) ([]scoreboard.Entry, error)
	SubmitName(ctx context.Context, name string) error
	TypeName(ctx context.Context, value string) (string, error)
	// RequestDevice switches to the serial device on port. An empty port
	// picks the configured or first available device.
	RequestDevice(ctx context.Context, port string) error
}

func HandleGetState(cabinet Cabinet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := cabinet.Snapshot(r.Context())
		if err != nil {
			log.Error("failed to get state: %v", err)
			http.Error(w, "Failed to get state", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func HandleListScores(cabinet Cabinet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := cabinet.Scores(r.Context())
		if err != nil {
			log.Error("failed to list scores: %v", err)
			http.Error(w, "Failed to list scores", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []scoreboard.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func HandleSubmitName(cabinet Cabinet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.FormValue("name")
		if err := cabinet.SubmitName(r.Context(), name); err != nil {
			switch {
			case game.IsNotAcceptingNames(err):
				http.Error(w, "Not accepting names", http.StatusConflict)
			case game.IsEmptyName(err):
				http.Error(w, "Name must contain at least one letter or digit", http.StatusBadRequest)
			default:
				log.Error("failed to submit name: %v", err)
				http.Error(w, "Failed to submit name", http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type nameInputResponse struct {
	Value string `json:"value"`
}

func HandleTypeName(cabinet Cabinet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := cabinet.TypeName(r.Context(), r.FormValue("value"))
		if err != nil {
			log.Error("failed to type name: %v", err)
			http.Error(w, "Failed to type name", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, nameInputResponse{Value: value})
	}
}

func HandleRequestDevice(cabinet Cabinet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cabinet.RequestDevice(r.Context(), r.FormValue("port")); err != nil {
			log.Warn("failed to request device: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
