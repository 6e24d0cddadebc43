package handlers

import "smartcal/internal/schedule"

// validClock проверяет строку времени 'HH:MM'.
func validClock(s string) bool {
	_, err := schedule.ParseClock(s)
	return err == nil
}

// validSlotDuration — допустимые длительности слота повестки.
func validSlotDuration(minutes int) bool {
	switch minutes {
	case 30, 45, 60:
		return true
	}
	return false
}
