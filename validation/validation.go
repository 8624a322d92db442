// Package validation implements the entity validation engine.
//
// Rules are declared as an explicit, ordered table next to each entity instead
// of as annotations on the type definition. Each rule pairs a field value with
// either a go-playground/validator constraint tag or a custom predicate, plus
// the exact human-readable message reported on violation. The engine is a pure
// function of the entity's field values at call time: it has no side effects
// and touches no shared state.
package validation

import (
	"reflect"

	validator "github.com/go-playground/validator/v10"
)

// Rule is a single declarative constraint on one field value.
type Rule struct {
	// Value is the field value the constraint applies to. Pointer values are
	// treated as "present" when non-nil, so a caller-supplied zero (e.g.
	// status 0) satisfies a required rule.
	Value interface{}
	// Tag is a go-playground/validator constraint expression such as
	// "required" or "max=255". Ignored when Check is set.
	Tag string
	// Check is an optional custom predicate; it reports true when the rule
	// holds. Used for constraints validator tags cannot express, such as
	// "the supplied deadline string parsed as a date".
	Check func() bool
	// Message is the violation message reported when the rule fails.
	Message string
}

// Engine evaluates rule tables. It wraps a single validator.Validate instance,
// which is safe for concurrent use and caches tag parsing internally.
type Engine struct {
	validate *validator.Validate
}

// NewEngine creates a validation Engine.
func NewEngine() *Engine {
	return &Engine{validate: validator.New()}
}

// Validate evaluates the rules in order and returns the messages of every
// violated rule. An empty slice means the entity is valid.
func (e *Engine) Validate(rules []Rule) []string {
	var messages []string
	for _, rule := range rules {
		if rule.Check != nil {
			if !rule.Check() {
				messages = append(messages, rule.Message)
			}
			continue
		}
		// Var dereferences pointers before applying the tag, which would make
		// a pointer to a zero value fail "required". Presence of a pointer is
		// therefore decided here on nil-ness alone.
		if rv := reflect.ValueOf(rule.Value); rv.Kind() == reflect.Ptr && rule.Tag == "required" {
			if rv.IsNil() {
				messages = append(messages, rule.Message)
			}
			continue
		}
		if err := e.validate.Var(rule.Value, rule.Tag); err != nil {
			messages = append(messages, rule.Message)
		}
	}
	return messages
}
