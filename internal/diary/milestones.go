package diary

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/chrisd/bautagebuch/internal/apperr"
	"github.com/chrisd/bautagebuch/internal/models"
)

// CreateMilestoneInput carries the milestone modal's submitted fields.
// Duration arrives as the raw form string; anything unparsable becomes 1.
type CreateMilestoneInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Date        string `json:"date"`
	Duration    string `json:"duration"`
}

// MilestoneUpdate carries field edits for a milestone. Nil fields are
// preserved on the existing record (field-level merge, not replace).
type MilestoneUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Date        *string `json:"date,omitempty"`
	Duration    *string `json:"duration,omitempty"`
}

// CreateMilestone appends a new milestone with a fresh id, planned status
// and zero progress, then persists.
func (s *Store) CreateMilestone(in CreateMilestoneInput) (models.Milestone, error) {
	s.mu.Lock()
	m := models.Milestone{
		ID:          s.newMilestoneID(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Date:        in.Date,
		Duration:    parseDuration(in.Duration),
		Status:      models.StatusPlanned,
		Progress:    0,
	}
	s.doc.Milestones = append(s.doc.Milestones, m)
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit("milestone.created", m.ID)
	return m, err
}

// UpdateMilestone merges the non-nil fields of upd over the stored record
// and persists. Fields absent from the edit form survive untouched.
func (s *Store) UpdateMilestone(id string, upd MilestoneUpdate) (models.Milestone, error) {
	s.mu.Lock()
	idx := s.milestoneIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Milestone{}, fmt.Errorf("diary: milestone %s: %w", id, apperr.ErrNotFound)
	}

	m := &s.doc.Milestones[idx]
	applyString(&m.Title, upd.Title)
	applyString(&m.Description, upd.Description)
	applyString(&m.Category, upd.Category)
	applyString(&m.Priority, upd.Priority)
	applyString(&m.Date, upd.Date)
	if upd.Duration != nil {
		m.Duration = parseDuration(*upd.Duration)
	}
	out := *m
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit("milestone.updated", id)
	return out, err
}

// DeleteMilestone removes the milestone with the given id. An unknown id
// is a no-op.
func (s *Store) DeleteMilestone(id string) error {
	s.mu.Lock()
	idx := s.milestoneIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.doc.Milestones = append(s.doc.Milestones[:idx], s.doc.Milestones[idx+1:]...)
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit("milestone.deleted", id)
	return err
}

// SetMilestoneStatus transitions a milestone's status. Completing a
// milestone forces progress to 100 regardless of its previous value.
func (s *Store) SetMilestoneStatus(id, status string) (models.Milestone, error) {
	s.mu.Lock()
	idx := s.milestoneIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Milestone{}, fmt.Errorf("diary: milestone %s: %w", id, apperr.ErrNotFound)
	}
	m := &s.doc.Milestones[idx]
	m.Status = status
	if status == models.StatusCompleted {
		m.Progress = 100
	}
	out := *m
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit("milestone.updated", id)
	return out, err
}

// FindMilestone looks up a milestone by id.
func (s *Store) FindMilestone(id string) (models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.milestoneIndexLocked(id)
	if idx < 0 {
		return models.Milestone{}, fmt.Errorf("diary: milestone %s: %w", id, apperr.ErrNotFound)
	}
	return s.doc.Milestones[idx], nil
}

// ListMilestones returns all milestones.
func (s *Store) ListMilestones() []models.Milestone {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Milestone, len(s.doc.Milestones))
	copy(out, s.doc.Milestones)
	return out
}

func (s *Store) milestoneIndexLocked(id string) int {
	for i := range s.doc.Milestones {
		if s.doc.Milestones[i].ID == id {
			return i
		}
	}
	return -1
}

// newMilestoneID generates a unix-millisecond timestamp with a random
// base36 suffix, retrying on the (unlikely) collision within the
// collection. Callers hold s.mu.
func (s *Store) newMilestoneID() string {
	for {
		id := fmt.Sprintf("%d-%s", s.now().UnixMilli(), randSuffix())
		if s.milestoneIndexLocked(id) < 0 {
			return id
		}
	}
}

func randSuffix() string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return suffix
}

// parseDuration interprets the raw form value as a positive day count;
// anything missing, unparsable or below 1 collapses to 1.
func parseDuration(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
