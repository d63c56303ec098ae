package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hive-mind/coordinator/internal/coordinator"
	"github.com/hive-mind/coordinator/internal/types"
)

// swarmHandler serves the initialize/submit_objective/status verbs,
// grounded on the TasksHandler shape: one struct per resource, wrapping
// the domain dependency it delegates to.
type swarmHandler struct {
	coord *coordinator.Coordinator
}

func (h *swarmHandler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	limitRequestSize(r)

	var req struct {
		Name       string `json:"name"`
		Objective  string `json:"objective"`
		QueenMode  string `json:"queen_mode,omitempty"`
		MaxWorkers int    `json:"max_workers,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	swarmID, err := h.coord.Initialize(coordinator.Config{
		Name:       req.Name,
		Objective:  req.Objective,
		QueenMode:  types.QueenMode(req.QueenMode),
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"swarm_id": swarmID})
}

func (h *swarmHandler) HandleSubmitObjective(w http.ResponseWriter, r *http.Request) {
	limitRequestSize(r)

	var req struct {
		Name       string `json:"name"`
		Objective  string `json:"objective"`
		QueenMode  string `json:"queen_mode,omitempty"`
		MaxWorkers int    `json:"max_workers,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	swarmID, err := h.coord.SubmitObjective(req.Objective, coordinator.Config{
		Name:       req.Name,
		QueenMode:  types.QueenMode(req.QueenMode),
		MaxWorkers: req.MaxWorkers,
	})
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"swarm_id": swarmID})
}

func (h *swarmHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" || len(id) > 100 {
		respondError(w, http.StatusBadRequest, "invalid swarm id")
		return
	}
	snap, err := h.coord.Status(id)
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
