// Package models defines the domain types for the Bautagebuch diary.
package models

import (
	"encoding/json"
	"fmt"
)

// Milestone status values.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Document is the root aggregate holding all persisted diary state.
// Exactly one instance exists per process; the diary store owns it.
type Document struct {
	PreConstruction  Section      `json:"preConstruction"`
	DailyEntries     []DailyEntry `json:"dailyEntries"`
	PostConstruction Section      `json:"postConstruction"`
	Milestones       []Milestone  `json:"milestones"`
}

// NewDocument returns an empty document with all collections initialised.
func NewDocument() *Document {
	return &Document{
		PreConstruction:  Section{},
		DailyEntries:     []DailyEntry{},
		PostConstruction: Section{},
		Milestones:       []Milestone{},
	}
}

// Normalize replaces nil collections with empty ones. Imported documents
// may omit any of the four top-level fields.
func (d *Document) Normalize() {
	if d.PreConstruction == nil {
		d.PreConstruction = Section{}
	}
	if d.PostConstruction == nil {
		d.PostConstruction = Section{}
	}
	if d.DailyEntries == nil {
		d.DailyEntries = []DailyEntry{}
	}
	if d.Milestones == nil {
		d.Milestones = []Milestone{}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		PreConstruction:  d.PreConstruction.Clone(),
		PostConstruction: d.PostConstruction.Clone(),
		DailyEntries:     make([]DailyEntry, len(d.DailyEntries)),
		Milestones:       make([]Milestone, len(d.Milestones)),
	}
	copy(out.DailyEntries, d.DailyEntries)
	copy(out.Milestones, d.Milestones)
	return out
}

// Section is a free-form field map for the pre- and post-construction forms.
// Keys are whatever the form layer submits; no schema is enforced here.
type Section map[string]FieldValue

// Clone returns a deep copy of the section map.
func (s Section) Clone() Section {
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v.clone()
	}
	return out
}

// FieldValue is either a plain text value or, for file inputs, a list of
// file metadata records. The two shapes share one JSON slot: a string or
// an array, matching the legacy document format.
type FieldValue struct {
	Text  string
	Files []FileMetadata
}

// TextValue returns a plain text field value.
func TextValue(s string) FieldValue { return FieldValue{Text: s} }

// FilesValue returns a file-metadata field value.
func FilesValue(files ...FileMetadata) FieldValue { return FieldValue{Files: files} }

// IsFiles reports whether the value holds file metadata.
func (v FieldValue) IsFiles() bool { return v.Files != nil }

func (v FieldValue) clone() FieldValue {
	if v.Files == nil {
		return v
	}
	files := make([]FileMetadata, len(v.Files))
	copy(files, v.Files)
	return FieldValue{Files: files}
}

// MarshalJSON encodes file values as an array and everything else as a string.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.Files != nil {
		return json.Marshal(v.Files)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts either shape.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FieldValue{Text: s}
		return nil
	}
	var files []FileMetadata
	if err := json.Unmarshal(data, &files); err == nil {
		if files == nil {
			files = []FileMetadata{}
		}
		*v = FieldValue{Files: files}
		return nil
	}
	return fmt.Errorf("models: field value must be a string or a file list, got %s", data)
}

// FileMetadata captures an uploaded file's descriptors. Binary content is
// never persisted.
type FileMetadata struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	LastModified int64  `json:"lastModified"`
}

// DailyEntry is one dated log record of on-site activity and conditions.
// IDs are session-local integers; the next id is recomputed as max+1 on
// every load and import.
type DailyEntry struct {
	ID               int    `json:"id"`
	Date             string `json:"date"`
	Weather          string `json:"weather"`
	Temperature      string `json:"temperature"`
	Personal         string `json:"personal"`
	Equipment        string `json:"equipment"`
	Materials        string `json:"materials"`
	Progress         string `json:"progress"`
	Issues           string `json:"issues"`
	Inspections      string `json:"inspections"`
	Safety           string `json:"safety"`
	PhotoDescription string `json:"photoDescription"`
}

// Milestone is a dated, categorised project checkpoint.
type Milestone struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Date        string `json:"date"`
	Duration    int    `json:"duration"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
}
