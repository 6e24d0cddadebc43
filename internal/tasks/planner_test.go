package tasks

import (
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"smartcal/internal/models"
	"smartcal/internal/storage"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func setupTestDB(t *testing.T) {
	if os.Getenv("ENV_CHEK") == "" {
		_ = godotenv.Load("../../.env")
	}
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST не задан, пропуск интеграционного теста")
	}

	storage.ConnectTestingDatabase()
	if err := storage.DB.AutoMigrate(
		&models.User{}, &models.Calendar{}, &models.Agenda{},
		&models.AvailabilitySlot{}, &models.Meeting{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}
}

func createUserWithAgenda(t *testing.T) (models.User, models.Agenda) {
	user := models.User{
		Name:         "Пётр",
		Email:        fmt.Sprintf("petr_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hashed123",
		Alias:        fmt.Sprintf("petr_%d", time.Now().UnixNano()),
		Role:         models.RoleUser,
	}
	assert.NoError(t, storage.DB.Create(&user).Error)

	calendar := models.Calendar{UserID: user.ID, Alias: "work", IsPrimary: true, SyncDirection: "two-way"}
	assert.NoError(t, storage.DB.Create(&calendar).Error)

	agenda := models.Agenda{
		UserID:       user.ID,
		CalendarID:   calendar.ID,
		SlotDuration: 30,
		AliasName:    fmt.Sprintf("petr-agenda-%d", time.Now().UnixNano()),
		IsActive:     true,
	}
	assert.NoError(t, storage.DB.Create(&agenda).Error)

	return user, agenda
}

func TestCleanOldCancelledMeetings(t *testing.T) {
	setupTestDB(t)
	_, agenda := createUserWithAgenda(t)

	now := time.Now().UTC()
	stale := models.Meeting{
		AgendaID:      agenda.ID,
		StartTime:     now.Add(-40 * 24 * time.Hour),
		EndTime:       now.Add(-40*24*time.Hour + 30*time.Minute),
		BookedByEmail: "old@example.com",
		MeetingType:   models.MeetingTypeInPerson,
		Status:        models.MeetingStatusCancelled,
	}
	recent := models.Meeting{
		AgendaID:      agenda.ID,
		StartTime:     now.Add(-2 * 24 * time.Hour),
		EndTime:       now.Add(-2*24*time.Hour + 30*time.Minute),
		BookedByEmail: "recent@example.com",
		MeetingType:   models.MeetingTypeInPerson,
		Status:        models.MeetingStatusCancelled,
	}
	active := models.Meeting{
		AgendaID:      agenda.ID,
		StartTime:     now.Add(-40 * 24 * time.Hour),
		EndTime:       now.Add(-40*24*time.Hour + 30*time.Minute),
		BookedByEmail: "kept@example.com",
		MeetingType:   models.MeetingTypeInPerson,
		Status:        models.MeetingStatusBooked,
	}
	assert.NoError(t, storage.DB.Create(&stale).Error)
	assert.NoError(t, storage.DB.Create(&recent).Error)
	assert.NoError(t, storage.DB.Create(&active).Error)

	CleanOldCancelledMeetings()

	var count int64
	storage.DB.Model(&models.Meeting{}).Where("id = ?", stale.ID).Count(&count)
	assert.Equal(t, int64(0), count, "старая отменённая встреча должна быть удалена")

	// Свежие отменённые и любые активные встречи остаются.
	storage.DB.Model(&models.Meeting{}).Where("id IN ?", []uint{recent.ID, active.ID}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestSyncSecondaryToPrimary(t *testing.T) {
	setupTestDB(t)
	user, _ := createUserWithAgenda(t)

	// Заглушка: находит основной календарь и выходит без изменений данных.
	SyncSecondaryToPrimary(user.ID)

	var calendars int64
	storage.DB.Model(&models.Calendar{}).Where("user_id = ?", user.ID).Count(&calendars)
	assert.Equal(t, int64(1), calendars)
}
