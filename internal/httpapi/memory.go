package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/hive-mind/coordinator/internal/coordinator"
	"github.com/hive-mind/coordinator/internal/memory"
)

func secondsToDuration(secs int) time.Duration {
	if secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// memoryHandler serves the shared memory store's get/put/delete/search
// verbs, grounded on the same handler-struct-per-resource shape as
// swarmHandler/taskHandler.
type memoryHandler struct {
	coord *coordinator.Coordinator
}

func (h *memoryHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	limitRequestSize(r)
	vars := mux.Vars(r)

	var req struct {
		Value   json.RawMessage `json:"value"`
		TTLSecs int             `json:"ttl_seconds,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ttl := secondsToDuration(req.TTLSecs)
	if err := h.coord.Memory().Store(vars["namespace"], vars["key"], req.Value, ttl); err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"namespace": vars["namespace"], "key": vars["key"]})
}

func (h *memoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	value, ok, err := h.coord.Memory().Retrieve(vars["namespace"], vars["key"])
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "key not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(value)
}

func (h *memoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.coord.Memory().Delete(vars["namespace"], vars["key"]); err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": vars["key"]})
}

func (h *memoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.coord.Memory().List(vars["namespace"], limit)
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *memoryHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	minAccess, _ := strconv.ParseInt(q.Get("min_access_count"), 10, 64)

	entries, err := h.coord.Memory().Search(memory.SearchOptions{
		Namespace:      q.Get("namespace"),
		Pattern:        q.Get("pattern"),
		KeyPrefix:      q.Get("key_prefix"),
		MinAccessCount: minAccess,
		Limit:          limit,
		SortBy:         memory.SortBy(q.Get("sort_by")),
	})
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
