package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hive-mind/coordinator/internal/coordinator"
	"github.com/hive-mind/coordinator/internal/types"
)

// consensusHandler serves propose/vote, grounded on the same
// handler-struct-per-resource shape as taskHandler.
type consensusHandler struct {
	coord *coordinator.Coordinator
}

func (h *consensusHandler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	limitRequestSize(r)
	swarmID := mux.Vars(r)["id"]

	var req struct {
		Topic          string   `json:"topic"`
		Options        []string `json:"options"`
		Algorithm      string   `json:"algorithm,omitempty"`
		DeadlineMillis int64    `json:"deadline_ms,omitempty"`
		EligibleVoters []string `json:"eligible_voters,omitempty"`
		WeightedVoter  string   `json:"weighted_voter,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deadline := time.Now().Add(time.Hour)
	if req.DeadlineMillis > 0 {
		deadline = time.UnixMilli(req.DeadlineMillis)
	}

	proposalID, err := h.coord.Propose(swarmID, req.Topic, req.Options, types.ConsensusAlgorithm(req.Algorithm), deadline, req.EligibleVoters, req.WeightedVoter)
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"proposal_id": proposalID})
}

func (h *consensusHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	limitRequestSize(r)
	proposalID := mux.Vars(r)["proposal_id"]

	var req struct {
		Voter  string `json:"voter"`
		Choice string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proposal, err := h.coord.Vote(proposalID, req.Voter, req.Choice)
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proposal)
}
