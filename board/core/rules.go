// ABOUTME: Rules configure a board: transition variant, column ceilings, checklist bounds, delete scope.
// ABOUTME: DefaultRules mirrors the classic widget: ceilings of 3 and 5, checklists of 3 to 5 items.
package core

import (
	"fmt"
	"strings"
)

// Variant selects the transition policy.
type Variant string

const (
	// VariantDeadline moves cards by explicit stage buttons and grades them against the deadline.
	VariantDeadline Variant = "deadline"
	// VariantChecklist moves cards by checklist completion ratio under column ceilings.
	VariantChecklist Variant = "checklist"
)

// DeleteScope selects which columns allow deletion.
type DeleteScope string

const (
	DeleteAnywhere    DeleteScope = "any"
	DeleteBacklogOnly DeleteScope = "backlog"
)

// Rules is the board configuration consumed by the store and the transition policy.
type Rules struct {
	Variant         Variant     `json:"variant" yaml:"variant" toml:"variant"`
	BacklogLimit    int         `json:"backlog_limit" yaml:"backlog_limit" toml:"backlog_limit"`
	InProgressLimit int         `json:"in_progress_limit" yaml:"in_progress_limit" toml:"in_progress_limit"`
	MinItems        int         `json:"min_items" yaml:"min_items" toml:"min_items"`
	MaxItems        int         `json:"max_items" yaml:"max_items" toml:"max_items"`
	DeleteScope     DeleteScope `json:"delete_scope" yaml:"delete_scope" toml:"delete_scope"`
	// AuditToggles records checklist toggles in the edit trail alongside confirmed edits.
	AuditToggles bool `json:"audit_toggles" yaml:"audit_toggles" toml:"audit_toggles"`
}

// DefaultRules returns the deadline-gated configuration with the standard ceilings.
func DefaultRules() Rules {
	return Rules{
		Variant:         VariantDeadline,
		BacklogLimit:    3,
		InProgressLimit: 5,
		MinItems:        3,
		MaxItems:        5,
		DeleteScope:     DeleteAnywhere,
	}
}

// ChecklistRules returns the completion-ratio configuration with the standard ceilings.
func ChecklistRules() Rules {
	r := DefaultRules()
	r.Variant = VariantChecklist
	r.DeleteScope = DeleteBacklogOnly
	return r
}

// ParseVariant parses a variant name.
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantDeadline:
		return VariantDeadline, nil
	case VariantChecklist:
		return VariantChecklist, nil
	}
	return "", fmt.Errorf("unknown variant: %q", s)
}

// ParseDeleteScope parses a delete scope name.
func ParseDeleteScope(s string) (DeleteScope, error) {
	switch DeleteScope(strings.ToLower(strings.TrimSpace(s))) {
	case DeleteAnywhere:
		return DeleteAnywhere, nil
	case DeleteBacklogOnly:
		return DeleteBacklogOnly, nil
	}
	return "", fmt.Errorf("unknown delete scope: %q", s)
}

// Validate checks that the limits are usable.
func (r Rules) Validate() error {
	if _, err := ParseVariant(string(r.Variant)); err != nil {
		return err
	}
	if _, err := ParseDeleteScope(string(r.DeleteScope)); err != nil {
		return err
	}
	if r.BacklogLimit < 1 || r.InProgressLimit < 1 {
		return fmt.Errorf("column limits must be positive (backlog=%d, in_progress=%d)",
			r.BacklogLimit, r.InProgressLimit)
	}
	if r.MinItems < 1 || r.MaxItems < r.MinItems {
		return fmt.Errorf("checklist bounds must satisfy 1 <= min <= max (min=%d, max=%d)",
			r.MinItems, r.MaxItems)
	}
	return nil
}
