package tasks

import (
	"fmt"
	"log"
	"strings"
	"time"

	"smartcal/internal/mailer"
	"smartcal/internal/models"
	"smartcal/internal/storage"

	"github.com/robfig/cron/v3"
)

// SendDailyAgendas ищет пользователей, у которых локальное время совпало с
// настроенным временем отправки, и шлёт им сводку встреч на сегодня.
func SendDailyAgendas() {
	nowUTC := time.Now().UTC()

	var users []models.User
	if err := storage.DB.
		Where("send_daily_agenda = ? AND agenda_send_time <> '' AND timezone <> ''", true).
		Find(&users).Error; err != nil {
		log.Println("Ошибка при поиске получателей ежедневной сводки:", err)
		return
	}

	for _, user := range users {
		loc, err := time.LoadLocation(user.Timezone)
		if err != nil {
			log.Printf("Неизвестный часовой пояс %q у пользователя %d", user.Timezone, user.ID)
			continue
		}

		localNow := nowUTC.In(loc)
		if localNow.Format("15:04") != user.AgendaSendTime {
			continue
		}

		// Границы локальных суток пользователя в UTC.
		dayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, loc).UTC()
		dayEnd := dayStart.Add(24 * time.Hour)

		var meetings []models.Meeting
		if err := storage.DB.
			Joins("JOIN agendas ON agendas.id = meetings.agenda_id").
			Where("agendas.user_id = ? AND meetings.status = ? AND meetings.start_time >= ? AND meetings.start_time < ?",
				user.ID, models.MeetingStatusBooked, dayStart, dayEnd).
			Order("meetings.start_time ASC").
			Find(&meetings).Error; err != nil {
			log.Printf("Ошибка загрузки встреч для сводки пользователя %d: %v", user.ID, err)
			continue
		}

		mailer.SendAsync(user.Email, "Your Daily Agenda", renderAgenda(meetings, loc))
	}
}

func renderAgenda(meetings []models.Meeting, loc *time.Location) string {
	if len(meetings) == 0 {
		return "No meetings scheduled for today."
	}
	var b strings.Builder
	b.WriteString("Your meetings for today:\n")
	for _, m := range meetings {
		fmt.Fprintf(&b, "%s - %s (%s)\n",
			m.StartTime.In(loc).Format("15:04"), m.EndTime.In(loc).Format("15:04"), m.BookedByEmail)
	}
	return b.String()
}

// CleanOldCancelledMeetings удаляет отменённые встречи, закончившиеся больше
// месяца назад. Активные бронирования — неизменяемая история и не трогаются.
func CleanOldCancelledMeetings() {
	threshold := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if err := storage.DB.
		Where("status = ? AND end_time < ?", models.MeetingStatusCancelled, threshold).
		Delete(&models.Meeting{}).Error; err != nil {
		log.Println("Ошибка при удалении старых отменённых встреч:", err)
	} else {
		log.Println("Старые отменённые встречи удалены.")
	}
}

// SyncSecondaryToPrimary — заглушка синхронизации вторичных календарей с
// основным. Реальная двусторонняя синхронизация с внешними календарями
// сознательно не реализована.
func SyncSecondaryToPrimary(userID uint) {
	var primary models.Calendar
	if err := storage.DB.Where("user_id = ? AND is_primary = ?", userID, true).
		First(&primary).Error; err != nil {
		log.Printf("У пользователя %d нет основного календаря", userID)
		return
	}
	log.Printf("Синхронизация календарей пользователя %d пока не реализована.", userID)
}

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Проверка времени отправки сводок каждую минуту.
	_, err := c.AddFunc("0 * * * * *", SendDailyAgendas)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи SendDailyAgendas:", err)
	}

	// Задача очистки старых отменённых встреч каждый день в 03:00.
	_, err = c.AddFunc("0 0 3 * * *", CleanOldCancelledMeetings)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи CleanOldCancelledMeetings:", err)
	}

	c.Start()
	log.Println("Cron-планировщик запущен.")
	return c
}
