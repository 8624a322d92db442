package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/user/taskboard-go/apperror"
	"github.com/user/taskboard-go/users"
	"github.com/user/taskboard-go/validation"
)

type mockUserStore struct {
	users map[int]*users.User
}

func (m *mockUserStore) Find(ctx context.Context, id int) (*users.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", id), nil)
}

func (m *mockUserStore) FindAll(ctx context.Context) ([]*users.User, error) {
	return nil, nil
}

func (m *mockUserStore) FindBy(ctx context.Context, filter users.Filter) ([]*users.User, error) {
	return nil, nil
}

func (m *mockUserStore) Save(ctx context.Context, user *users.User) error { return nil }

func (m *mockUserStore) Remove(ctx context.Context, user *users.User) error { return nil }

type mockTaskStore struct {
	findFunc    func(ctx context.Context, id int) (*Task, error)
	findByFunc  func(ctx context.Context, filter Filter) ([]*Task, error)
	saveFunc    func(ctx context.Context, task *Task) error
	removeFunc  func(ctx context.Context, task *Task) error
	saveCalls   int
	removeCalls int
}

func (m *mockTaskStore) Find(ctx context.Context, id int) (*Task, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, id)
	}
	return nil, apperror.NewNotFoundError(fmt.Sprintf("task with ID %d not found", id), nil)
}

func (m *mockTaskStore) FindBy(ctx context.Context, filter Filter) ([]*Task, error) {
	if m.findByFunc != nil {
		return m.findByFunc(ctx, filter)
	}
	return []*Task{}, nil
}

func (m *mockTaskStore) Save(ctx context.Context, task *Task) error {
	m.saveCalls++
	if m.saveFunc != nil {
		return m.saveFunc(ctx, task)
	}
	if task.ID == 0 {
		task.ID = 1
	}
	return nil
}

func (m *mockTaskStore) Remove(ctx context.Context, task *Task) error {
	m.removeCalls++
	if m.removeFunc != nil {
		return m.removeFunc(ctx, task)
	}
	return nil
}

func newTestRouter(store Store, userStore users.Store) http.Handler {
	h := NewHandlers(store, userStore, validation.NewEngine())
	r := chi.NewRouter()
	r.Route("/{user}/tasks", func(r chi.Router) {
		h.RegisterRoutes(r)
	})
	return r
}

func singleUser(id int) *mockUserStore {
	return &mockUserStore{users: map[int]*users.User{
		id: {ID: id, Username: "test", Email: "test@example.com"},
	}}
}

func TestCreateTask_UnknownUser(t *testing.T) {
	store := &mockTaskStore{}
	router := newTestRouter(store, &mockUserStore{})

	body := `{"title":"test","status":1}`
	req := httptest.NewRequest(http.MethodPost, "/99/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	if resp["error"] != "User not found" {
		t.Errorf(`expected {"error":"User not found"}, got %v`, resp)
	}
	if store.saveCalls != 0 {
		t.Errorf("no task must be persisted, got %d saves", store.saveCalls)
	}
}

func TestCreateTask_Valid(t *testing.T) {
	var saved *Task
	store := &mockTaskStore{
		saveFunc: func(ctx context.Context, task *Task) error {
			task.ID = 10
			saved = task
			return nil
		},
	}
	router := newTestRouter(store, singleUser(3))

	body := `{"title":"test","description":"test","deadline":"2022-09-01","status":1}`
	req := httptest.NewRequest(http.MethodPost, "/3/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
	if saved == nil {
		t.Fatal("expected task to be persisted")
	}
	if saved.Title != "test" {
		t.Errorf("title = %q", saved.Title)
	}
	if saved.User == nil || saved.User.ID != 3 {
		t.Errorf("task must be owned by the path user, got %+v", saved.User)
	}
	if saved.Deadline == nil || saved.Deadline.Format("2006-01-02") != "2022-09-01" {
		t.Errorf("deadline not parsed, got %v", saved.Deadline)
	}
	if saved.Status == nil || *saved.Status != 1 {
		t.Errorf("status = %v", saved.Status)
	}
}

func TestCreateTask_TitleTooLong(t *testing.T) {
	store := &mockTaskStore{}
	router := newTestRouter(store, singleUser(3))

	payload := map[string]interface{}{
		"title":  strings.Repeat("a", 256),
		"status": 1,
	}
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/3/tasks", strings.NewReader(string(raw)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var messages []string
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("expected a JSON array of messages, got %q: %v", rec.Body.String(), err)
	}
	if len(messages) != 1 || !strings.Contains(messages[0], "255") {
		t.Errorf("expected message referencing the 255 limit, got %v", messages)
	}
	if store.saveCalls != 0 {
		t.Errorf("no task must be persisted, got %d saves", store.saveCalls)
	}
}

func TestCreateTask_StatusDefaultsToZero(t *testing.T) {
	var saved *Task
	store := &mockTaskStore{
		saveFunc: func(ctx context.Context, task *Task) error {
			saved = task
			return nil
		},
	}
	router := newTestRouter(store, singleUser(3))

	req := httptest.NewRequest(http.MethodPost, "/3/tasks", strings.NewReader(`{"title":"test"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if saved == nil || saved.Status == nil || *saved.Status != 0 {
		t.Errorf("absent status must default to 0, got %+v", saved)
	}
}

func TestCreateTask_InvalidDeadline(t *testing.T) {
	store := &mockTaskStore{}
	router := newTestRouter(store, singleUser(3))

	body := `{"title":"test","deadline":"tomorrow-ish","status":1}`
	req := httptest.NewRequest(http.MethodPost, "/3/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var messages []string
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("expected a JSON array of messages, got %q: %v", rec.Body.String(), err)
	}
	if len(messages) != 1 || messages[0] != `"deadline" must be a valid date.` {
		t.Errorf("expected deadline violation, got %v", messages)
	}
}

func TestListTasks_CreationOrder(t *testing.T) {
	owner := singleUser(3)
	store := &mockTaskStore{
		findByFunc: func(ctx context.Context, filter Filter) ([]*Task, error) {
			if filter.UserID == nil || *filter.UserID != 3 {
				t.Errorf("expected filter on user 3, got %+v", filter)
			}
			return []*Task{
				{ID: 1, Title: "test 0", Status: intPtr(1), User: owner.users[3]},
				{ID: 2, Title: "test 1", Status: intPtr(0), User: owner.users[3]},
			}, nil
		},
	}
	router := newTestRouter(store, owner)

	req := httptest.NewRequest(http.MethodGet, "/3/tasks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected two tasks, got %d", len(listed))
	}
	if listed[0]["title"] != "test 0" || listed[1]["title"] != "test 1" {
		t.Errorf("tasks out of creation order: %v", listed)
	}
	if _, ok := listed[0]["user"].(map[string]interface{}); !ok {
		t.Errorf("listed tasks must embed the full user object, got %T", listed[0]["user"])
	}
}

func TestListTasks_UnknownUser(t *testing.T) {
	router := newTestRouter(&mockTaskStore{}, &mockUserStore{})

	req := httptest.NewRequest(http.MethodGet, "/99/tasks", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User not found") {
		t.Errorf("expected User not found body, got %q", rec.Body.String())
	}
}

func TestShowTask_Absent(t *testing.T) {
	router := newTestRouter(&mockTaskStore{}, singleUser(3))

	req := httptest.NewRequest(http.MethodGet, "/3/tasks/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "null" {
		t.Errorf("expected literal null body, got %q", rec.Body.String())
	}
}

func TestUpdateTask(t *testing.T) {
	owner := singleUser(3)
	existing := &Task{
		ID:          7,
		Title:       "test",
		Description: strPtr("test"),
		Status:      intPtr(1),
		User:        owner.users[3],
	}
	var saved *Task
	store := &mockTaskStore{
		findFunc: func(ctx context.Context, id int) (*Task, error) {
			clone := *existing
			return &clone, nil
		},
		saveFunc: func(ctx context.Context, task *Task) error {
			saved = task
			return nil
		},
	}
	router := newTestRouter(store, owner)

	body := `{"title":"updated","description":"updated"}`
	req := httptest.NewRequest(http.MethodPut, "/3/tasks/7", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// The reference contract responds 201 on update, not 200.
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if saved == nil {
		t.Fatal("expected task to be persisted")
	}
	if saved.Title != "updated" || saved.Description == nil || *saved.Description != "updated" {
		t.Errorf("fields not overwritten: %+v", saved)
	}
	// Absent status blanks to the default rather than keeping the old value.
	if saved.Status == nil || *saved.Status != 0 {
		t.Errorf("absent status must default to 0, got %v", saved.Status)
	}
	if saved.User == nil || saved.User.ID != 3 {
		t.Errorf("task must stay owned by the path user, got %+v", saved.User)
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	router := newTestRouter(&mockTaskStore{}, singleUser(3))

	req := httptest.NewRequest(http.MethodPut, "/3/tasks/42", strings.NewReader(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	if resp["error"] != "Task not found" {
		t.Errorf(`expected {"error":"Task not found"}, got %v`, resp)
	}
}

func TestDeleteTask(t *testing.T) {
	owner := singleUser(3)
	present := true
	store := &mockTaskStore{}
	store.findFunc = func(ctx context.Context, id int) (*Task, error) {
		if present {
			return &Task{ID: id, Title: "test", Status: intPtr(1), User: owner.users[3]}, nil
		}
		return nil, apperror.NewNotFoundError(fmt.Sprintf("task with ID %d not found", id), nil)
	}
	store.removeFunc = func(ctx context.Context, task *Task) error {
		present = false
		return nil
	}
	router := newTestRouter(store, owner)

	req := httptest.NewRequest(http.MethodDelete, "/3/tasks/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}

	// A subsequent lookup by the deleted id reports not found.
	req = httptest.NewRequest(http.MethodDelete, "/3/tasks/7", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}
