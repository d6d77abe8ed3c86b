// ABOUTME: Input commands for card creation and edits, plus the field validation they require.
// ABOUTME: Validation trims text, rejects blanks, and bounds checklist length for the checklist policy.
package core

import (
	"fmt"
	"strings"
	"time"
)

// NewCard carries the fields collected by the creation form.
type NewCard struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Items       []string  `json:"items,omitempty"`
}

// CardPatch is an explicit edit command. Nil fields are left unchanged.
type CardPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	// Items replaces checklist texts; completion flags are kept by position.
	Items *[]string `json:"items,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CardPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Deadline == nil && p.Items == nil
}

// deadlineLayouts are the accepted textual deadline formats, most specific first.
var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeadline parses an RFC 3339 timestamp or a datetime-local value in loc.
func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ValidationError{Field: "deadline", Reason: "must not be blank"}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ValidationError{Field: "deadline", Reason: fmt.Sprintf("unrecognized date %q", s)}
}

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", &ValidationError{Field: field, Reason: "must not be blank"}
	}
	return trimmed, nil
}

func requireDeadline(t time.Time) error {
	if t.IsZero() {
		return &ValidationError{Field: "deadline", Reason: "must be set"}
	}
	return nil
}

// validateItems trims item texts and enforces the checklist bounds when enforce is set.
func validateItems(texts []string, rules Rules, enforce bool) ([]string, error) {
	if enforce && (len(texts) < rules.MinItems || len(texts) > rules.MaxItems) {
		return nil, &ValidationError{
			Field:  "items",
			Reason: fmt.Sprintf("need between %d and %d items, got %d", rules.MinItems, rules.MaxItems, len(texts)),
		}
	}
	out := make([]string, 0, len(texts))
	for i, text := range texts {
		trimmed, err := requireText(fmt.Sprintf("items[%d]", i), text)
		if err != nil {
			return nil, err
		}
		out = append(out, trimmed)
	}
	return out, nil
}

// validateNewCard normalizes a creation request against the rules.
func validateNewCard(in NewCard, rules Rules) (NewCard, error) {
	var err error
	out := NewCard{Deadline: in.Deadline}
	if out.Title, err = requireText("title", in.Title); err != nil {
		return NewCard{}, err
	}
	if out.Description, err = requireText("description", in.Description); err != nil {
		return NewCard{}, err
	}
	if err := requireDeadline(in.Deadline); err != nil {
		return NewCard{}, err
	}
	enforce := rules.Variant == VariantChecklist
	if enforce || len(in.Items) > 0 {
		if out.Items, err = validateItems(in.Items, rules, enforce); err != nil {
			return NewCard{}, err
		}
	}
	return out, nil
}

// validatePatch normalizes an edit command against the rules.
func validatePatch(p CardPatch, rules Rules) (CardPatch, error) {
	var out CardPatch
	if p.Title != nil {
		v, err := requireText("title", *p.Title)
		if err != nil {
			return CardPatch{}, err
		}
		out.Title = &v
	}
	if p.Description != nil {
		v, err := requireText("description", *p.Description)
		if err != nil {
			return CardPatch{}, err
		}
		out.Description = &v
	}
	if p.Deadline != nil {
		if err := requireDeadline(*p.Deadline); err != nil {
			return CardPatch{}, err
		}
		d := *p.Deadline
		out.Deadline = &d
	}
	if p.Items != nil {
		items, err := validateItems(*p.Items, rules, rules.Variant == VariantChecklist)
		if err != nil {
			return CardPatch{}, err
		}
		out.Items = &items
	}
	return out, nil
}
