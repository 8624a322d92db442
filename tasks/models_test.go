package tasks

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/user/taskboard-go/users"
	"github.com/user/taskboard-go/validation"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSetDeadlineFromString(t *testing.T) {
	cases := []struct {
		name    string
		input   *string
		want    string // expected deadline in 2006-01-02 form, "" for unset
		invalid bool
	}{
		{name: "nil is a no-op", input: nil},
		{name: "empty is a no-op", input: strPtr("")},
		{name: "plain date", input: strPtr("2022-09-01"), want: "2022-09-01"},
		{name: "date with time", input: strPtr("2022-09-01 10:30:00"), want: "2022-09-01"},
		{name: "rfc3339", input: strPtr("2022-09-01T10:30:00Z"), want: "2022-09-01"},
		{name: "garbage", input: strPtr("not-a-date"), invalid: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := &Task{}
			task.SetDeadlineFromString(tc.input)

			if tc.invalid != task.invalidDeadline {
				t.Errorf("invalidDeadline = %v, want %v", task.invalidDeadline, tc.invalid)
			}
			if tc.want == "" {
				if task.Deadline != nil {
					t.Errorf("deadline should stay unset, got %v", task.Deadline)
				}
				return
			}
			if task.Deadline == nil {
				t.Fatal("deadline not set")
			}
			if got := task.Deadline.Format("2006-01-02"); got != tc.want {
				t.Errorf("deadline = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestValidationRules(t *testing.T) {
	engine := validation.NewEngine()
	owner := &users.User{ID: 1, Username: "test", Email: "test@example.com"}

	t.Run("valid task", func(t *testing.T) {
		task := &Task{Title: "test", Status: intPtr(1), User: owner}
		if msgs := engine.Validate(task.ValidationRules()); len(msgs) != 0 {
			t.Errorf("expected no violations, got %v", msgs)
		}
	})

	t.Run("status zero is supplied", func(t *testing.T) {
		task := &Task{Title: "test", Status: intPtr(0), User: owner}
		if msgs := engine.Validate(task.ValidationRules()); len(msgs) != 0 {
			t.Errorf("status 0 must be accepted, got %v", msgs)
		}
	})

	t.Run("blank title", func(t *testing.T) {
		task := &Task{Status: intPtr(1), User: owner}
		msgs := engine.Validate(task.ValidationRules())
		if len(msgs) != 1 || msgs[0] != `"title" is required.` {
			t.Errorf("expected title violation, got %v", msgs)
		}
	})

	t.Run("title over 255", func(t *testing.T) {
		task := &Task{Title: strings.Repeat("a", 256), Status: intPtr(1), User: owner}
		msgs := engine.Validate(task.ValidationRules())
		if len(msgs) != 1 || !strings.Contains(msgs[0], "255") {
			t.Errorf("expected message referencing the 255 limit, got %v", msgs)
		}
	})

	t.Run("invalid deadline", func(t *testing.T) {
		task := &Task{Title: "test", Status: intPtr(1), User: owner}
		task.SetDeadlineFromString(strPtr("not-a-date"))
		msgs := engine.Validate(task.ValidationRules())
		if len(msgs) != 1 || msgs[0] != `"deadline" must be a valid date.` {
			t.Errorf("expected deadline violation, got %v", msgs)
		}
	})

	t.Run("missing user and status", func(t *testing.T) {
		task := &Task{Title: "test"}
		msgs := engine.Validate(task.ValidationRules())
		want := []string{`"status" is required.`, `"user_id" is required.`}
		if len(msgs) != 2 || msgs[0] != want[0] || msgs[1] != want[1] {
			t.Errorf("expected %v, got %v", want, msgs)
		}
	})
}

func TestTaskSerializesNestedUser(t *testing.T) {
	created := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)
	task := &Task{
		ID:          4,
		Title:       "test",
		Description: strPtr("details"),
		Status:      intPtr(1),
		User: &users.User{
			ID:        2,
			Username:  "owner",
			Email:     "owner@example.com",
			CreatedAt: created,
			UpdatedAt: created,
		},
	}
	task.SetDeadlineFromString(strPtr("2022-09-01"))

	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	nested, ok := decoded["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("user must serialize as a nested object, got %T", decoded["user"])
	}
	if nested["username"] != "owner" || nested["email"] != "owner@example.com" {
		t.Errorf("unexpected nested user %v", nested)
	}
	if _, leaked := nested["password"]; leaked {
		t.Error("nested user must not expose the password hash")
	}
	if decoded["deadline"] == nil {
		t.Error("deadline must be serialized when set")
	}
}

func TestTaskSerializesNullFields(t *testing.T) {
	task := &Task{ID: 1, Title: "test", Status: intPtr(0), User: &users.User{ID: 2}}

	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"description":null`) {
		t.Errorf("absent description must serialize as null, got %s", body)
	}
	if !strings.Contains(body, `"deadline":null`) {
		t.Errorf("absent deadline must serialize as null, got %s", body)
	}
	if !strings.Contains(body, `"status":0`) {
		t.Errorf("status 0 must serialize as 0, got %s", body)
	}
}
