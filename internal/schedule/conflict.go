package schedule

import "smartcal/internal/models"

// Verdict — результат проверки кандидата на бронируемость.
type Verdict int

const (
	Available Verdict = iota
	SlotTaken
	QuotaExceeded
)

// Overlaps проверяет пересечение полуоткрытых интервалов: встреча конфликтует
// с кандидатом, если start < candidate.End и end > candidate.Start. Смежные
// границы конфликтом не считаются.
func Overlaps(candidate Interval, m models.Meeting) bool {
	return m.StartTime.Before(candidate.End) && m.EndTime.After(candidate.Start)
}

// IsBookable решает, можно ли отдать кандидата посетителю, глядя на уже
// существующие встречи повестки. Учитываются только встречи в статусе booked.
// При одновременном нарушении обеих проверок первым сообщается превышение
// лимита — так ведёт себя публичный API.
func IsBookable(candidate Interval, existing []models.Meeting, visitorEmail string, quota int) Verdict {
	held := 0
	taken := false
	for _, m := range existing {
		if m.Status != models.MeetingStatusBooked {
			continue
		}
		if m.BookedByEmail == visitorEmail {
			held++
		}
		if Overlaps(candidate, m) {
			taken = true
		}
	}
	if held >= quota {
		return QuotaExceeded
	}
	if taken {
		return SlotTaken
	}
	return Available
}
