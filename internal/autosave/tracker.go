package autosave

import "time"

// SaveRecord describes the most recent successful persistence call.
type SaveRecord struct {
	Serialization string
	SavedAt       *time.Time
}

// Tracker decides whether a snapshot carries changes that were not yet
// persisted. It is not safe for concurrent use; the Coordinator guards it.
type Tracker struct {
	record SaveRecord
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Eligible reports whether a snapshot may be autosaved at all.
func Eligible(s Snapshot) bool {
	return !s.Empty()
}

func (t *Tracker) Changed(s Snapshot) bool {
	return s.Canonical() != t.record.Serialization
}

// Baseline sets the persisted serialization without a save time, for documents
// loaded from storage when the session opens.
func (t *Tracker) Baseline(s Snapshot) {
	t.record.Serialization = s.Canonical()
}

func (t *Tracker) MarkSaved(s Snapshot, at time.Time) {
	t.record = SaveRecord{
		Serialization: s.Canonical(),
		SavedAt:       &at,
	}
}

func (t *Tracker) Record() SaveRecord {
	r := t.record
	if r.SavedAt != nil {
		at := *r.SavedAt
		r.SavedAt = &at
	}
	return r
}
