package schedule

import (
	"testing"
	"time"

	"smartcal/internal/models"

	"github.com/stretchr/testify/assert"
)

// 2 июня 2025 — понедельник.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func TestParseClock(t *testing.T) {
	min, err := ParseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 9*60+30, min)

	min, err = ParseClock("00:00")
	assert.NoError(t, err)
	assert.Equal(t, 0, min)

	min, err = ParseClock("23:59")
	assert.NoError(t, err)
	assert.Equal(t, 23*60+59, min)

	// Мусор в хвосте поля минут не должен тихо превращаться в другое время:
	// "00:1a" — это не минута 1, а "09:3x" — не 09:03.
	for _, bad := range []string{"", "9:30", "24:00", "12:60", "ab:cd", "12-30", "12:300", "00:1a", "09:3x", "12:3 "} {
		_, err := ParseClock(bad)
		assert.Error(t, err, "строка %q должна быть отвергнута", bad)
	}
}

func TestComputeOpenSlots_MondayWindow(t *testing.T) {
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "10:00"},
	}

	slots := ComputeOpenSlots(30, rules, monday, 1)

	assert.Len(t, slots, 2)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[0].End)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[1].Start)
	assert.Equal(t, monday.Add(10*time.Hour), slots[1].End)
}

func TestComputeOpenSlots_NoRulesMeansNoSlots(t *testing.T) {
	// Правило только на вторник, горизонт — понедельник.
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
	}

	slots := ComputeOpenSlots(30, rules, monday, 1)
	assert.Empty(t, slots)
}

func TestComputeOpenSlots_TrailingPartialDiscarded(t *testing.T) {
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "09:50"},
	}

	slots := ComputeOpenSlots(30, rules, monday, 1)

	assert.Len(t, slots, 1)
	assert.Equal(t, monday.Add(9*time.Hour), slots[0].Start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[0].End)
}

func TestComputeOpenSlots_ZeroHorizon(t *testing.T) {
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"},
	}

	assert.Empty(t, ComputeOpenSlots(30, rules, monday, 0))
	assert.Empty(t, ComputeOpenSlots(0, rules, monday, 7))
}

func TestComputeOpenSlots_EverySlotInsideSomeWindow(t *testing.T) {
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "12:15"},
		{UserID: 1, DayOfWeek: 2, StartTime: "14:00", EndTime: "16:00"},
		{UserID: 1, DayOfWeek: 5, StartTime: "10:30", EndTime: "11:00"},
	}

	slots := ComputeOpenSlots(45, rules, monday, 7)
	assert.NotEmpty(t, slots)

	windows := []Interval{
		{monday.Add(9 * time.Hour), monday.Add(12*time.Hour + 15*time.Minute)},
		{monday.Add(48*time.Hour + 14*time.Hour), monday.Add(48*time.Hour + 16*time.Hour)},
		{monday.Add(120*time.Hour + 10*time.Hour + 30*time.Minute), monday.Add(120*time.Hour + 11*time.Hour)},
	}

	for _, s := range slots {
		assert.Equal(t, 45*time.Minute, s.End.Sub(s.Start), "каждый кандидат ровно 45 минут")
		inside := false
		for _, w := range windows {
			if !s.Start.Before(w.Start) && !s.End.After(w.End) {
				inside = true
				break
			}
		}
		assert.True(t, inside, "кандидат %v выходит за пределы всех окон", s)
	}

	// Окно субботы короче слота и не даёт ни одного кандидата.
	for _, s := range slots {
		assert.NotEqual(t, 5, weekdayIndex(s.Start.Weekday()))
	}
}

func TestComputeOpenSlots_MidDayHorizonStart(t *testing.T) {
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "11:00"},
	}

	// Горизонт начинается в 09:30: первый слот уже недоступен.
	slots := ComputeOpenSlots(30, rules, monday.Add(9*time.Hour+30*time.Minute), 1)

	assert.Len(t, slots, 3)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), slots[0].Start)
}

func TestComputeOpenSlots_OverlappingRulesAndDedupe(t *testing.T) {
	// Два одинаковых правила дают дублирующиеся кандидаты.
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "10:00"},
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "10:00"},
	}

	raw := ComputeOpenSlots(30, rules, monday, 1)
	assert.Len(t, raw, 4)

	deduped := DedupeSlots(raw)
	assert.Len(t, deduped, 2)
}

func TestComputeOpenSlots_InvalidRuleSkipped(t *testing.T) {
	rules := []models.AvailabilitySlot{
		{UserID: 1, DayOfWeek: 0, StartTime: "10:00", EndTime: "09:00"},
		{UserID: 1, DayOfWeek: 0, StartTime: "xx:yy", EndTime: "12:00"},
	}

	assert.Empty(t, ComputeOpenSlots(30, rules, monday, 1))
}
