// Package tasks encapsulates task management: the Task entity, its validation
// rule set, the persistence gateway and the HTTP handlers mounted under
// /{user}/tasks.
package tasks

import (
	"time"

	"github.com/user/taskboard-go/users"
	"github.com/user/taskboard-go/validation"
)

// deadlineLayouts are the accepted textual deadline formats, tried in order.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Task mirrors one row of the task table. The owning user is serialized as a
// full nested object, not a bare id.
type Task struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Deadline    *time.Time  `json:"deadline"`
	Status      *int        `json:"status"`
	User        *users.User `json:"user"`

	// invalidDeadline records that SetDeadlineFromString was given a value it
	// could not parse, so validation can report it instead of silently
	// dropping the input.
	invalidDeadline bool
}

// SetDeadlineFromString parses a textual deadline into the entity's date value.
// A nil or empty input is a no-op and leaves the deadline unchanged. An
// unparseable input marks the entity invalid for the deadline rule.
func (t *Task) SetDeadlineFromString(value *string) {
	t.invalidDeadline = false
	if value == nil || *value == "" {
		return
	}
	for _, layout := range deadlineLayouts {
		if parsed, err := time.Parse(layout, *value); err == nil {
			t.Deadline = &parsed
			return
		}
	}
	t.invalidDeadline = true
}

// ValidationRules returns the declarative rule table for the entity's current
// field values, in field order. A status pointer to 0 counts as supplied.
func (t *Task) ValidationRules() []validation.Rule {
	return []validation.Rule{
		{Value: t.Title, Tag: "required", Message: `"title" is required.`},
		{Value: t.Title, Tag: "max=255", Message: "The title cannot be longer than 255 characters."},
		{Check: func() bool { return !t.invalidDeadline }, Message: `"deadline" must be a valid date.`},
		{Value: t.Status, Tag: "required", Message: `"status" is required.`},
		{Value: t.User, Tag: "required", Message: `"user_id" is required.`},
	}
}
