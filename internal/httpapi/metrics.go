package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hive-mind/coordinator/internal/coordinator"
)

// metricsHandler serves the metrics() verb: raw per-agent counters plus
// the team rollup, grounded on the same handler-struct shape used
// elsewhere in this package.
type metricsHandler struct {
	coord *coordinator.Coordinator
}

func (h *metricsHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.coord.MetricsSnapshot())
}

func (h *metricsHandler) HandleTeamSummary(w http.ResponseWriter, r *http.Request) {
	swarmID := mux.Vars(r)["id"]
	team, err := h.coord.TeamSummary(swarmID)
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, team)
}
