package validation

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidateRequiredString(t *testing.T) {
	e := NewEngine()

	msgs := e.Validate([]Rule{
		{Value: "", Tag: "required", Message: `"username" is required.`},
	})
	if len(msgs) != 1 || msgs[0] != `"username" is required.` {
		t.Errorf("expected single required violation, got %v", msgs)
	}

	msgs = e.Validate([]Rule{
		{Value: "alice", Tag: "required", Message: `"username" is required.`},
	})
	if len(msgs) != 0 {
		t.Errorf("expected no violations, got %v", msgs)
	}
}

func TestValidateRequiredPointerAcceptsZero(t *testing.T) {
	e := NewEngine()

	// A pointer to 0 counts as supplied; only a nil pointer violates the rule.
	zero := 0
	msgs := e.Validate([]Rule{
		{Value: &zero, Tag: "required", Message: `"status" is required.`},
	})
	if len(msgs) != 0 {
		t.Errorf("status 0 should be valid, got %v", msgs)
	}

	var absent *int
	msgs = e.Validate([]Rule{
		{Value: absent, Tag: "required", Message: `"status" is required.`},
	})
	if len(msgs) != 1 {
		t.Errorf("nil status should violate, got %v", msgs)
	}
}

func TestValidateMaxLength(t *testing.T) {
	e := NewEngine()
	rule := Rule{
		Value:   strings.Repeat("a", 256),
		Tag:     "max=255",
		Message: "The title cannot be longer than 255 characters.",
	}

	msgs := e.Validate([]Rule{rule})
	if len(msgs) != 1 || msgs[0] != "The title cannot be longer than 255 characters." {
		t.Errorf("expected length violation, got %v", msgs)
	}

	rule.Value = strings.Repeat("a", 255)
	if msgs := e.Validate([]Rule{rule}); len(msgs) != 0 {
		t.Errorf("255 characters should be valid, got %v", msgs)
	}
}

func TestValidateCustomCheck(t *testing.T) {
	e := NewEngine()

	msgs := e.Validate([]Rule{
		{Check: func() bool { return false }, Message: `"deadline" must be a valid date.`},
	})
	if len(msgs) != 1 {
		t.Errorf("failing check should violate, got %v", msgs)
	}

	msgs = e.Validate([]Rule{
		{Check: func() bool { return true }, Message: `"deadline" must be a valid date.`},
	})
	if len(msgs) != 0 {
		t.Errorf("passing check should not violate, got %v", msgs)
	}
}

func TestValidateReportsInOrder(t *testing.T) {
	e := NewEngine()

	msgs := e.Validate([]Rule{
		{Value: "", Tag: "required", Message: "first"},
		{Value: "ok", Tag: "required", Message: "skipped"},
		{Check: func() bool { return false }, Message: "second"},
	})
	if !reflect.DeepEqual(msgs, []string{"first", "second"}) {
		t.Errorf("expected ordered messages [first second], got %v", msgs)
	}
}
