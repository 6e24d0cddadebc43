package schedule

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"time"

	"smartcal/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Типизированные отказы транзакции бронирования.
var (
	ErrAgendaNotFound   = errors.New("повестка не найдена или неактивна")
	ErrQuotaExceeded    = errors.New("превышен лимит бронирований посетителя")
	ErrSlotTaken        = errors.New("слот уже забронирован")
	ErrMeetingNotFound  = errors.New("встреча не найдена")
	ErrAlreadyCancelled = errors.New("встреча уже отменена")
)

// DefaultVisitorQuota — максимум активных бронирований одного посетителя на
// одну повестку, если BOOKING_QUOTA не задан.
const DefaultVisitorQuota = 3

func VisitorQuota() int {
	if v := os.Getenv("BOOKING_QUOTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultVisitorQuota
}

// BookingRequest — параметры новой встречи от посетителя.
type BookingRequest struct {
	StartTime        time.Time
	EndTime          time.Time
	BookedByEmail    string
	MeetingType      string
	TravelTimeBefore int
	TravelTimeAfter  int
	VirtualApp       string
}

// BookSlot атомарно перепроверяет и фиксирует бронирование. Строка повестки
// берётся под SELECT ... FOR UPDATE, поэтому конкурирующие бронирования одной
// повестки выполняются строго по очереди: из двух запросов на один интервал
// выигрывает ровно один, второй получает ErrSlotTaken. Бронирования разных
// повесток друг другу не мешают.
func BookSlot(db *gorm.DB, aliasName string, req BookingRequest, quota int) (*models.Meeting, error) {
	var booked models.Meeting
	err := db.Transaction(func(tx *gorm.DB) error {
		var agenda models.Agenda
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("alias_name = ? AND is_active = ?", aliasName, true).
			First(&agenda).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAgendaNotFound
			}
			return err
		}

		var existing []models.Meeting
		if err := tx.Where("agenda_id = ? AND status = ?", agenda.ID, models.MeetingStatusBooked).
			Find(&existing).Error; err != nil {
			return err
		}

		candidate := Interval{Start: req.StartTime.UTC(), End: req.EndTime.UTC()}
		switch IsBookable(candidate, existing, req.BookedByEmail, quota) {
		case QuotaExceeded:
			return ErrQuotaExceeded
		case SlotTaken:
			return ErrSlotTaken
		}

		booked = models.Meeting{
			AgendaID:         agenda.ID,
			StartTime:        candidate.Start,
			EndTime:          candidate.End,
			BookedByEmail:    req.BookedByEmail,
			MeetingType:      req.MeetingType,
			TravelTimeBefore: req.TravelTimeBefore,
			TravelTimeAfter:  req.TravelTimeAfter,
			VirtualApp:       req.VirtualApp,
			Status:           models.MeetingStatusBooked,
		}
		if req.MeetingType == models.MeetingTypeVirtual {
			booked.JoinLink = joinLink()
		}
		return tx.Create(&booked).Error
	})
	if err != nil {
		return nil, err
	}
	return &booked, nil
}

func joinLink() string {
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return base + "/join/" + uuid.NewString()
}

// ListOpenSlots возвращает свободные интервалы повестки на horizonDays суток
// вперёд: кандидаты калькулятора за вычетом занятых слотов, без дубликатов,
// по возрастанию времени начала. Список носит справочный характер —
// окончательную проверку делает только BookSlot.
func ListOpenSlots(db *gorm.DB, aliasName string, horizonStart time.Time, horizonDays int) ([]Interval, error) {
	var agenda models.Agenda
	if err := db.Where("alias_name = ? AND is_active = ?", aliasName, true).
		First(&agenda).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgendaNotFound
		}
		return nil, err
	}

	var rules []models.AvailabilitySlot
	if err := db.Where("user_id = ?", agenda.UserID).Find(&rules).Error; err != nil {
		return nil, err
	}

	horizonEnd := horizonStart.UTC().Add(time.Duration(horizonDays) * 24 * time.Hour)
	var existing []models.Meeting
	if err := db.Where("agenda_id = ? AND status = ? AND start_time < ? AND end_time > ?",
		agenda.ID, models.MeetingStatusBooked, horizonEnd, horizonStart.UTC()).
		Find(&existing).Error; err != nil {
		return nil, err
	}

	candidates := DedupeSlots(ComputeOpenSlots(agenda.SlotDuration, rules, horizonStart, horizonDays))
	open := make([]Interval, 0, len(candidates))
	for _, c := range candidates {
		free := true
		for _, m := range existing {
			if Overlaps(c, m) {
				free = false
				break
			}
		}
		if free {
			open = append(open, c)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Start.Before(open[j].Start) })
	return open, nil
}

// CancelMeeting переводит встречу booked -> cancelled. Доступно только
// владельцу повестки; cancelled — терминальный статус.
func CancelMeeting(db *gorm.DB, ownerID uint, meetingID uint) (*models.Meeting, error) {
	var meeting models.Meeting
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&meeting, meetingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMeetingNotFound
			}
			return err
		}

		var agenda models.Agenda
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", meeting.AgendaID, ownerID).
			First(&agenda).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMeetingNotFound
			}
			return err
		}

		if meeting.Status != models.MeetingStatusBooked {
			return ErrAlreadyCancelled
		}
		meeting.Status = models.MeetingStatusCancelled
		return tx.Save(&meeting).Error
	})
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}
