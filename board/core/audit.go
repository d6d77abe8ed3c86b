// ABOUTME: AuditRecorder appends timestamps to a card's edit trail on confirmed edits.
// ABOUTME: Checklist toggles are recorded only when the rules opt in.
package core

import "time"

// AuditRecorder maintains the append-only EditDates trail.
type AuditRecorder struct {
	recordToggles bool
}

// NewAuditRecorder builds a recorder from the board rules.
func NewAuditRecorder(r Rules) AuditRecorder {
	return AuditRecorder{recordToggles: r.AuditToggles}
}

// RecordEdit appends now for a confirmed edit.
func (a AuditRecorder) RecordEdit(card *Card, now time.Time) {
	appendStamp(card, now)
}

// RecordToggle appends now for a checklist toggle if toggles are audited.
func (a AuditRecorder) RecordToggle(card *Card, now time.Time) {
	if a.recordToggles {
		appendStamp(card, now)
	}
}

// appendStamp keeps the trail chronological even if the clock steps backwards.
func appendStamp(card *Card, now time.Time) {
	if n := len(card.EditDates); n > 0 && now.Before(card.EditDates[n-1]) {
		now = card.EditDates[n-1]
	}
	card.EditDates = append(card.EditDates, now)
}
