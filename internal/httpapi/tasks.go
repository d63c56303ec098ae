package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/hive-mind/coordinator/internal/coordinator"
	"github.com/hive-mind/coordinator/internal/tasks"
	"github.com/hive-mind/coordinator/internal/types"
)

// taskHandler serves submit_task/cancel_task, grounded on
// TasksHandler.HandleList's limit/offset pagination and HandleCreate's
// validate-then-enqueue shape.
type taskHandler struct {
	coord *coordinator.Coordinator
}

func (h *taskHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	limitRequestSize(r)
	swarmID := mux.Vars(r)["id"]

	var req struct {
		Title                string   `json:"title"`
		Description          string   `json:"description"`
		Priority             int      `json:"priority"`
		RequiredCapabilities []string `json:"required_capabilities,omitempty"`
		DependsOn            []string `json:"depends_on,omitempty"`
		Strategy             string   `json:"strategy,omitempty"`
		MaxAgents            int      `json:"max_agents,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task := tasks.NewTask("", swarmID, req.Title, req.Description, req.Priority, types.NewCapabilitySet(req.RequiredCapabilities...), req.DependsOn)
	if req.Strategy != "" {
		task.Strategy = tasks.Strategy(req.Strategy)
	}
	if req.MaxAgents > 0 {
		task.MaxAgents = req.MaxAgents
	}

	taskID, err := h.coord.SubmitTask(task)
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"task_id": taskID})
}

func (h *taskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	swarmID := mux.Vars(r)["id"]

	query := r.URL.Query()
	limit, offset := 100, 0
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	snap, err := h.coord.Status(swarmID)
	if err != nil {
		writeHiveErr(w, err)
		return
	}

	all, err := h.coord.ListTasks(swarmID)
	if err != nil {
		writeHiveErr(w, err)
		return
	}
	total := len(all)
	if offset >= total {
		all = []*tasks.Task{}
	} else {
		end := offset + limit
		if end > total {
			end = total
		}
		all = all[offset:end]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":  all,
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"swarm":  snap.Swarm.ID,
	})
}

func (h *taskHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]
	if taskID == "" || len(taskID) > 100 {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := h.coord.CancelTask(taskID, 5*time.Second); err != nil {
		writeHiveErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"task_id": taskID, "status": "cancelled"})
}
