package schedule

import (
	"fmt"
	"time"

	"smartcal/internal/models"
)

// Interval — полуоткрытый интервал [Start, End) в UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// ParseClock разбирает время вида 'HH:MM' и возвращает минуту суток [0, 1440).
// Разбор строгий: ровно пять символов, только цифры в часах и минутах.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("неверный формат времени %q, ожидается 'HH:MM'", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("неверный формат времени %q, ожидается 'HH:MM'", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// weekdayIndex переводит time.Weekday в индекс правил доступности:
// 0=понедельник .. 6=воскресенье.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ComputeOpenSlots раскладывает окна доступности владельца на интервалы-кандидаты
// длиной ровно slotDuration минут в пределах горизонта
// [horizonStart, horizonStart + horizonDays суток).
//
// Существующие бронирования здесь не учитываются: генерация кандидатов и
// фильтрация конфликтов разделены намеренно. День без правил не даёт ни одного
// кандидата. Неполный хвост окна отбрасывается. Правила с некорректным временем
// пропускаются. Пересекающиеся правила одного дня дают дублирующиеся кандидаты —
// вызывающая сторона обязана их дедуплицировать.
func ComputeOpenSlots(slotDuration int, rules []models.AvailabilitySlot, horizonStart time.Time, horizonDays int) []Interval {
	if slotDuration <= 0 || horizonDays <= 0 {
		return nil
	}

	horizonStart = horizonStart.UTC()
	horizonEnd := horizonStart.Add(time.Duration(horizonDays) * 24 * time.Hour)

	// Правила группируются по дню недели один раз на весь горизонт.
	byDay := make(map[int][]models.AvailabilitySlot)
	for _, r := range rules {
		byDay[r.DayOfWeek] = append(byDay[r.DayOfWeek], r)
	}

	var out []Interval
	dayStart := time.Date(horizonStart.Year(), horizonStart.Month(), horizonStart.Day(), 0, 0, 0, 0, time.UTC)
	for ; dayStart.Before(horizonEnd); dayStart = dayStart.Add(24 * time.Hour) {
		for _, rule := range byDay[weekdayIndex(dayStart.Weekday())] {
			startMin, err := ParseClock(rule.StartTime)
			if err != nil {
				continue
			}
			endMin, err := ParseClock(rule.EndTime)
			if err != nil || endMin <= startMin {
				continue
			}

			slot := dayStart.Add(time.Duration(startMin) * time.Minute)
			windowEnd := dayStart.Add(time.Duration(endMin) * time.Minute)
			step := time.Duration(slotDuration) * time.Minute
			for !slot.Add(step).After(windowEnd) {
				slotEnd := slot.Add(step)
				if !slot.Before(horizonStart) && !slotEnd.After(horizonEnd) {
					out = append(out, Interval{Start: slot, End: slotEnd})
				}
				slot = slotEnd
			}
		}
	}
	return out
}

// DedupeSlots убирает повторяющиеся пары (start, end), появляющиеся из
// пересекающихся правил. Порядок первых вхождений сохраняется.
func DedupeSlots(slots []Interval) []Interval {
	seen := make(map[Interval]bool, len(slots))
	out := make([]Interval, 0, len(slots))
	for _, s := range slots {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
