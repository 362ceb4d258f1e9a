// Package calendar projects the milestone collection onto renderable
// month grids. The week starts on Monday and labels are German, matching
// the diary UI.
package calendar

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chrisd/bautagebuch/internal/models"
)

// monthNames holds the German month labels, January first.
var monthNames = [12]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Day is one grid cell. Blank leading cells (before the 1st) carry a zero
// Day number and no date.
type Day struct {
	Day        int                `json:"day"`
	Date       string             `json:"date,omitempty"` // YYYY-MM-DD
	IsToday    bool               `json:"isToday"`
	Milestones []models.Milestone `json:"milestones"`
}

// Grid describes one rendered month.
type Grid struct {
	Year  int    `json:"year"`
	Month int    `json:"month"` // 1..12
	Label string `json:"label"`
	Days  []Day  `json:"days"`
}

// Now is the clock used for the today marker; overridable in tests.
var Now = time.Now

// MonthGrid builds the grid for the given month: leading blanks up to the
// Monday-indexed weekday of the 1st, then one cell per day with the
// milestones falling on it.
func MonthGrid(year int, month time.Month, milestones []models.Milestone) Grid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	// time.Weekday has Sunday=0; shift so Monday=0.
	leading := (int(first.Weekday()) + 6) % 7

	byDay := milestonesByDay(milestones)
	today := Now()
	todayKey := today.Format("2006-01-02")

	days := make([]Day, 0, leading+daysInMonth)
	for i := 0; i < leading; i++ {
		days = append(days, Day{Milestones: []models.Milestone{}})
	}
	for d := 1; d <= daysInMonth; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, time.Local).Format("2006-01-02")
		ms := byDay[date]
		if ms == nil {
			ms = []models.Milestone{}
		}
		days = append(days, Day{
			Day:        d,
			Date:       date,
			IsToday:    date == todayKey,
			Milestones: ms,
		})
	}

	return Grid{
		Year:  year,
		Month: int(month),
		Label: MonthLabel(year, month),
		Days:  days,
	}
}

// MonthLabel returns the German month name with the year, e.g. "März 2024".
func MonthLabel(year int, month time.Month) string {
	return monthNames[int(month)-1] + " " + strconv.Itoa(year)
}

// milestonesByDay buckets milestones by the calendar day of their stored
// date. Dates may carry residual time-of-day components; only the day
// part participates in the match.
func milestonesByDay(milestones []models.Milestone) map[string][]models.Milestone {
	out := make(map[string][]models.Milestone)
	for _, m := range milestones {
		key, ok := DayKey(m.Date)
		if !ok {
			continue
		}
		out[key] = append(out[key], m)
	}
	return out
}

// DayKey normalises a stored date string to its YYYY-MM-DD day, dropping
// any time component ("2024-03-15T18:30:00" and "2024-03-15" both map to
// "2024-03-15").
func DayKey(date string) (string, bool) {
	s := strings.TrimSpace(date)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}

// Cursor is the single "current viewed month" of the calendar view.
// Navigation moves it exactly one month per action with year rollover.
type Cursor struct {
	mu    sync.Mutex
	year  int
	month time.Month
}

// NewCursor starts a cursor at the given month.
func NewCursor(year int, month time.Month) *Cursor {
	return &Cursor{year: year, month: month}
}

// Current returns the viewed year and month.
func (c *Cursor) Current() (int, time.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.year, c.month
}

// Shift moves the cursor by delta months and returns the new position.
// time.Date normalises overflow, so December +1 lands in next January.
func (c *Cursor) Shift(delta int) (int, time.Month) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Date(c.year, c.month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	c.year, c.month = t.Year(), t.Month()
	return c.year, c.month
}
