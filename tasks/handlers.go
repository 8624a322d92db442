// HTTP handlers for the task resource, scoped under a user id path segment.
// Every operation first resolves the path user; only then is the task looked
// at. The owning user of a task is always the path user, regardless of
// anything in the request body.
package tasks

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/users"
	"github.com/user/taskboard-go/validation"
)

var (
	tasksCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_tasks_created_total",
			Help: "Total number of task create requests by outcome",
		},
		[]string{"outcome"},
	)

	tasksUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_tasks_updated_total",
			Help: "Total number of task update requests by outcome",
		},
		[]string{"outcome"},
	)
)

// Handlers provides the HTTP handlers for task management. It depends on the
// task store, the user store (to resolve the path user) and the validation
// engine, all injected at construction.
type Handlers struct {
	store     Store
	userStore users.Store
	validator *validation.Engine
}

// NewHandlers creates the task Handlers.
func NewHandlers(store Store, userStore users.Store, validator *validation.Engine) *Handlers {
	return &Handlers{store: store, userStore: userStore, validator: validator}
}

// RegisterRoutes registers the task routes on the given router. The router is
// expected to be mounted at /{user}/tasks.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreate())
	r.Get("/", h.HandleList())
	r.Get("/{id}", h.HandleShow())
	r.Put("/{id}", h.HandleUpdate())
	r.Delete("/{id}", h.HandleDelete())
}

// resolveUser looks up the user named by the {user} path segment. On failure
// it writes the 404 response itself and reports false.
func (h *Handlers) resolveUser(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "user"))
	if err != nil {
		apperror.WriteError(w, apperror.NewNotFoundError("User not found", nil))
		return nil, false
	}
	user, err := h.userStore.Find(r.Context(), id)
	if err != nil {
		if apperror.IsNotFound(err) {
			apperror.WriteError(w, apperror.NewNotFoundError("User not found", nil))
		} else {
			apperror.WriteError(w, err)
		}
		return nil, false
	}
	return user, true
}

// applyRequest overwrites the task's fields from the request body. There are
// no keep-previous semantics: an absent description blanks the field and an
// absent status becomes 0, while an absent deadline leaves the current value
// (SetDeadlineFromString treats nil as a no-op). The owning user is forced to
// the resolved path user.
func applyRequest(task *Task, req *TaskRequest, owner *users.User) {
	task.Title = req.Title
	task.Description = req.Description
	task.SetDeadlineFromString(req.Deadline)
	task.User = owner
	status := 0
	if req.Status != nil {
		status = *req.Status
	}
	task.Status = &status
}

// HandleCreate godoc
// @Summary Create a task for a user
// @Tags tasks
// @Accept json
// @Param user path int true "Owning user id"
// @Param taskBody body tasks.TaskRequest true "Task details"
// @Success 201 "Task created"
// @Failure 400 {array} string "Validation messages"
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Router /{user}/tasks [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := h.resolveUser(w, r)
		if !ok {
			return
		}

		var req TaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		task := &Task{}
		applyRequest(task, &req, owner)

		if messages := h.validator.Validate(task.ValidationRules()); len(messages) > 0 {
			tasksCreated.WithLabelValues("invalid").Inc()
			apperror.WriteError(w, apperror.NewValidationError(messages))
			return
		}

		if err := h.store.Save(r.Context(), task); err != nil {
			tasksCreated.WithLabelValues("error").Inc()
			apperror.WriteError(w, err)
			return
		}

		tasksCreated.WithLabelValues("ok").Inc()
		apperror.WriteEmpty(w, http.StatusCreated)
	}
}

// HandleList godoc
// @Summary List a user's tasks
// @Tags tasks
// @Produce json
// @Param user path int true "Owning user id"
// @Success 200 {array} tasks.Task
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Router /{user}/tasks [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := h.resolveUser(w, r)
		if !ok {
			return
		}

		tasks, err := h.store.FindBy(r.Context(), Filter{UserID: &owner.ID})
		if err != nil {
			apperror.WriteError(w, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, tasks)
	}
}

// HandleShow godoc
// @Summary Show a task
// @Description Returns the task with its owning user embedded, or the literal null when the id is unknown. The task is looked up by id alone; it is not checked against the path user.
// @Tags tasks
// @Produce json
// @Param user path int true "Owning user id"
// @Param id path int true "Task id"
// @Success 200 {object} tasks.Task
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Router /{user}/tasks/{id} [get]
func (h *Handlers) HandleShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.resolveUser(w, r); !ok {
			return
		}

		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			apperror.WriteJSON(w, http.StatusOK, nil)
			return
		}

		task, err := h.store.Find(r.Context(), id)
		if err != nil {
			if apperror.IsNotFound(err) {
				apperror.WriteJSON(w, http.StatusOK, nil)
				return
			}
			apperror.WriteError(w, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, task)
	}
}

// HandleUpdate godoc
// @Summary Update a task
// @Description Overwrites title, description, deadline, status and the owning user (forced to the path user). Responds 201 on success, matching the reference contract.
// @Tags tasks
// @Accept json
// @Param user path int true "Owning user id"
// @Param id path int true "Task id"
// @Param taskBody body tasks.TaskRequest true "Task details"
// @Success 201 "Task updated"
// @Failure 400 {array} string "Validation messages"
// @Failure 404 {object} apperror.ErrorResponse "User or task not found"
// @Router /{user}/tasks/{id} [put]
func (h *Handlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := h.resolveUser(w, r)
		if !ok {
			return
		}

		task, ok := h.findTask(w, r)
		if !ok {
			return
		}

		var req TaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		applyRequest(task, &req, owner)

		if messages := h.validator.Validate(task.ValidationRules()); len(messages) > 0 {
			tasksUpdated.WithLabelValues("invalid").Inc()
			apperror.WriteError(w, apperror.NewValidationError(messages))
			return
		}

		if err := h.store.Save(r.Context(), task); err != nil {
			tasksUpdated.WithLabelValues("error").Inc()
			apperror.WriteError(w, err)
			return
		}

		tasksUpdated.WithLabelValues("ok").Inc()
		apperror.WriteEmpty(w, http.StatusCreated)
	}
}

// HandleDelete godoc
// @Summary Delete a task
// @Tags tasks
// @Param user path int true "Owning user id"
// @Param id path int true "Task id"
// @Success 204 "Task deleted"
// @Failure 404 {object} apperror.ErrorResponse "User or task not found"
// @Router /{user}/tasks/{id} [delete]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := h.resolveUser(w, r); !ok {
			return
		}

		task, ok := h.findTask(w, r)
		if !ok {
			return
		}

		if err := h.store.Remove(r.Context(), task); err != nil {
			apperror.WriteError(w, err)
			return
		}
		apperror.WriteEmpty(w, http.StatusNoContent)
	}
}

// findTask looks up the task named by the {id} path segment. On failure it
// writes the 404 response itself and reports false.
func (h *Handlers) findTask(w http.ResponseWriter, r *http.Request) (*Task, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		apperror.WriteError(w, apperror.NewNotFoundError("Task not found", nil))
		return nil, false
	}
	task, err := h.store.Find(r.Context(), id)
	if err != nil {
		if apperror.IsNotFound(err) {
			apperror.WriteError(w, apperror.NewNotFoundError("Task not found", nil))
		} else {
			apperror.WriteError(w, err)
		}
		return nil, false
	}
	return task, true
}
