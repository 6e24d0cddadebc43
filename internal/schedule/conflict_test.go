package schedule

import (
	"testing"
	"time"

	"smartcal/internal/models"

	"github.com/stretchr/testify/assert"
)

func meetingAt(start, end time.Time, email, status string) models.Meeting {
	return models.Meeting{
		AgendaID:      1,
		StartTime:     start,
		EndTime:       end,
		BookedByEmail: email,
		Status:        status,
	}
}

func TestOverlaps_HalfOpenIntervals(t *testing.T) {
	ten := monday.Add(10 * time.Hour)
	candidate := Interval{Start: ten, End: ten.Add(30 * time.Minute)}

	// Смежные границы не конфликтуют.
	assert.False(t, Overlaps(candidate, meetingAt(ten.Add(-30*time.Minute), ten, "a@b.c", models.MeetingStatusBooked)))
	assert.False(t, Overlaps(candidate, meetingAt(ten.Add(30*time.Minute), ten.Add(time.Hour), "a@b.c", models.MeetingStatusBooked)))

	// Частичное перекрытие и вложенность конфликтуют.
	assert.True(t, Overlaps(candidate, meetingAt(ten.Add(15*time.Minute), ten.Add(45*time.Minute), "a@b.c", models.MeetingStatusBooked)))
	assert.True(t, Overlaps(candidate, meetingAt(ten.Add(-15*time.Minute), ten.Add(15*time.Minute), "a@b.c", models.MeetingStatusBooked)))
	assert.True(t, Overlaps(candidate, meetingAt(ten, ten.Add(30*time.Minute), "a@b.c", models.MeetingStatusBooked)))
	assert.True(t, Overlaps(candidate, meetingAt(ten.Add(-time.Hour), ten.Add(2*time.Hour), "a@b.c", models.MeetingStatusBooked)))
}

func TestIsBookable_Available(t *testing.T) {
	ten := monday.Add(10 * time.Hour)
	candidate := Interval{Start: ten, End: ten.Add(30 * time.Minute)}

	existing := []models.Meeting{
		meetingAt(ten.Add(time.Hour), ten.Add(90*time.Minute), "other@example.com", models.MeetingStatusBooked),
	}

	assert.Equal(t, Available, IsBookable(candidate, existing, "visitor@example.com", 3))
}

func TestIsBookable_SlotTaken(t *testing.T) {
	ten := monday.Add(10 * time.Hour)
	candidate := Interval{Start: ten, End: ten.Add(30 * time.Minute)}

	existing := []models.Meeting{
		meetingAt(ten.Add(15*time.Minute), ten.Add(45*time.Minute), "other@example.com", models.MeetingStatusBooked),
	}

	assert.Equal(t, SlotTaken, IsBookable(candidate, existing, "visitor@example.com", 3))
}

func TestIsBookable_CancelledMeetingsIgnored(t *testing.T) {
	ten := monday.Add(10 * time.Hour)
	candidate := Interval{Start: ten, End: ten.Add(30 * time.Minute)}

	existing := []models.Meeting{
		meetingAt(ten, ten.Add(30*time.Minute), "other@example.com", models.MeetingStatusCancelled),
		meetingAt(ten.Add(time.Hour), ten.Add(90*time.Minute), "visitor@example.com", models.MeetingStatusCancelled),
	}

	assert.Equal(t, Available, IsBookable(candidate, existing, "visitor@example.com", 1))
}

func TestIsBookable_QuotaExceeded(t *testing.T) {
	ten := monday.Add(10 * time.Hour)
	// Свободный интервал: лимит проверяется независимо от конфликта.
	candidate := Interval{Start: ten.Add(5 * time.Hour), End: ten.Add(5*time.Hour + 30*time.Minute)}

	var existing []models.Meeting
	for i := 0; i < 3; i++ {
		start := ten.Add(time.Duration(i) * time.Hour)
		existing = append(existing, meetingAt(start, start.Add(30*time.Minute), "visitor@example.com", models.MeetingStatusBooked))
	}

	assert.Equal(t, QuotaExceeded, IsBookable(candidate, existing, "visitor@example.com", 3))
	assert.Equal(t, Available, IsBookable(candidate, existing, "someone-else@example.com", 3))
}

func TestIsBookable_QuotaReportedBeforeConflict(t *testing.T) {
	ten := monday.Add(10 * time.Hour)
	candidate := Interval{Start: ten, End: ten.Add(30 * time.Minute)}

	// Нарушены обе проверки: и лимит, и занятость слота.
	existing := []models.Meeting{
		meetingAt(ten, ten.Add(30*time.Minute), "visitor@example.com", models.MeetingStatusBooked),
	}

	assert.Equal(t, QuotaExceeded, IsBookable(candidate, existing, "visitor@example.com", 1))
}
