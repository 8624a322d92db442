// HTTP handlers for the /users resource. Handlers decode the request body,
// build or mutate the entity, run the validation engine, then call the
// persistence gateway; they never touch SQL themselves.
package users

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/validation"
)

var (
	usersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_users_created_total",
			Help: "Total number of user create requests by outcome",
		},
		[]string{"outcome"},
	)

	usersUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_users_updated_total",
			Help: "Total number of user update requests by outcome",
		},
		[]string{"outcome"},
	)
)

// Handlers provides the HTTP handlers for user management. The store and the
// validation engine are injected at construction; there is no ambient
// registry.
type Handlers struct {
	store     Store
	validator *validation.Engine
}

// NewHandlers creates the user Handlers.
func NewHandlers(store Store, validator *validation.Engine) *Handlers {
	return &Handlers{store: store, validator: validator}
}

// RegisterRoutes registers the user routes on the given router. The router is
// expected to be mounted at /users.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleCreate())
	r.Get("/", h.HandleList())
	r.Get("/{id}", h.HandleShow())
	r.Put("/{id}", h.HandleUpdate())
	r.Delete("/{id}", h.HandleDelete())
}

// HandleCreate godoc
// @Summary Create a user
// @Description Creates a new user. The plaintext password is stored only as a one-way hash.
// @Tags users
// @Accept json
// @Produce json
// @Param userBody body users.CreateUserRequest true "User details"
// @Success 201 "User created"
// @Failure 400 {array} string "Validation messages"
// @Failure 409 {object} apperror.ErrorResponse "Email already exists"
// @Router /users [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		user := &User{
			Username: req.Username,
			Email:    req.Email,
		}
		// An empty password stays empty so the required rule can report it;
		// hashing "" would otherwise always produce a non-blank value.
		if req.Password != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				apperror.WriteError(w, apperror.NewInternalError("failed to hash password", err))
				return
			}
			user.HashedPassword = string(hashed)
		}

		if messages := h.validator.Validate(user.ValidationRules()); len(messages) > 0 {
			usersCreated.WithLabelValues("invalid").Inc()
			apperror.WriteError(w, apperror.NewValidationError(messages))
			return
		}

		now := time.Now().UTC()
		user.CreatedAt = now
		user.UpdatedAt = now

		if err := h.store.Save(r.Context(), user); err != nil {
			usersCreated.WithLabelValues("error").Inc()
			apperror.WriteError(w, err)
			return
		}

		usersCreated.WithLabelValues("ok").Inc()
		apperror.WriteEmpty(w, http.StatusCreated)
	}
}

// HandleList godoc
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} users.User
// @Router /users [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.store.FindAll(r.Context())
		if err != nil {
			apperror.WriteError(w, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, users)
	}
}

// HandleShow godoc
// @Summary Show a user
// @Description Returns the user, or the literal null when the id is unknown.
// @Tags users
// @Produce json
// @Success 200 {object} users.User
// @Router /users/{id} [get]
func (h *Handlers) HandleShow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			apperror.WriteJSON(w, http.StatusOK, nil)
			return
		}

		user, err := h.store.Find(r.Context(), id)
		if err != nil {
			if apperror.IsNotFound(err) {
				// The reference contract serializes the missing lookup result
				// as-is rather than wrapping it in an error envelope.
				apperror.WriteJSON(w, http.StatusOK, nil)
				return
			}
			apperror.WriteError(w, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleUpdate godoc
// @Summary Update a user
// @Description Updates username and/or email; absent fields keep their current value. The password cannot be changed here.
// @Tags users
// @Accept json
// @Param userBody body users.UpdateUserRequest true "Fields to update"
// @Success 200 "User updated"
// @Failure 400 {array} string "Validation messages"
// @Failure 404 "User not found"
// @Router /users/{id} [put]
func (h *Handlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			apperror.WriteEmpty(w, http.StatusNotFound)
			return
		}

		user, err := h.store.Find(r.Context(), id)
		if err != nil {
			if apperror.IsNotFound(err) {
				apperror.WriteEmpty(w, http.StatusNotFound)
				return
			}
			apperror.WriteError(w, err)
			return
		}

		var req UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.Username != nil {
			user.Username = *req.Username
		}
		if req.Email != nil {
			user.Email = *req.Email
		}

		if messages := h.validator.Validate(user.ValidationRules()); len(messages) > 0 {
			usersUpdated.WithLabelValues("invalid").Inc()
			apperror.WriteError(w, apperror.NewValidationError(messages))
			return
		}

		user.UpdatedAt = time.Now().UTC()

		if err := h.store.Save(r.Context(), user); err != nil {
			usersUpdated.WithLabelValues("error").Inc()
			apperror.WriteError(w, err)
			return
		}

		usersUpdated.WithLabelValues("ok").Inc()
		apperror.WriteEmpty(w, http.StatusOK)
	}
}

// HandleDelete godoc
// @Summary Delete a user
// @Description Deletes the user. Rejected with 409 while tasks still reference the user.
// @Tags users
// @Success 204 "User deleted"
// @Failure 404 "User not found"
// @Failure 409 {object} apperror.ErrorResponse "User still has tasks"
// @Router /users/{id} [delete]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			apperror.WriteEmpty(w, http.StatusNotFound)
			return
		}

		user, err := h.store.Find(r.Context(), id)
		if err != nil {
			if apperror.IsNotFound(err) {
				apperror.WriteEmpty(w, http.StatusNotFound)
				return
			}
			apperror.WriteError(w, err)
			return
		}

		if err := h.store.Remove(r.Context(), user); err != nil {
			apperror.WriteError(w, err)
			return
		}
		apperror.WriteEmpty(w, http.StatusNoContent)
	}
}
