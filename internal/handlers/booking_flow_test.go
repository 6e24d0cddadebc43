package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"smartcal/internal/auth"
	"smartcal/internal/handlers"
	"smartcal/internal/models"
	"smartcal/internal/storage"
	"smartcal/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

var hubOnce sync.Once

func setupTestServer(t *testing.T) *httptest.Server {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		// .env опционален: в CI переменные приходят из окружения.
		_ = godotenv.Load("../../.env")
	}
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST не задан, пропуск интеграционного теста")
	}

	storage.ConnectTestingDatabase()

	if err := storage.DB.AutoMigrate(
		&models.User{}, &models.Calendar{}, &models.Agenda{},
		&models.AvailabilitySlot{}, &models.Meeting{},
		&models.Team{}, &models.TeamMember{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}
	storage.DB.Exec("TRUNCATE TABLE users, calendars, agendas, availability_slots, meetings, teams, team_members RESTART IDENTITY CASCADE;")

	storage.InitRedis()
	hubOnce.Do(func() { go ws.HubInstance.Run() })

	gin.SetMode(gin.TestMode)
	r := gin.New()

	public := r.Group("/agendas/public")
	{
		public.GET("/:alias_name", handlers.GetPublicAgenda)
		public.GET("/:alias_name/slots", handlers.GetPublicSlots)
		public.POST("/:alias_name/book", handlers.BookMeeting)
	}

	users := r.Group("/users")
	{
		users.POST("/register", handlers.Register)
		users.POST("/login", handlers.Login)
		users.GET("/me", auth.AuthMiddleware(), handlers.GetMe)
	}

	return httptest.NewServer(r)
}

// createBookableAgenda готовит владельца, календарь, повестку с 30-минутными
// слотами и одно окно доступности 09:00–10:00 на завтрашний день недели.
// Возвращает псевдоним повестки и время начала первого слота.
func createBookableAgenda(t *testing.T) (string, time.Time) {
	owner := models.User{
		Name:         "Анна",
		Email:        fmt.Sprintf("anna_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hashed123",
		Alias:        fmt.Sprintf("anna_%d", time.Now().UnixNano()),
		Role:         models.RoleUser,
	}
	assert.NoError(t, storage.DB.Create(&owner).Error)

	calendar := models.Calendar{UserID: owner.ID, Alias: "work", IsPrimary: true, SyncDirection: "one-way"}
	assert.NoError(t, storage.DB.Create(&calendar).Error)

	alias := fmt.Sprintf("consult-%d", time.Now().UnixNano())
	agenda := models.Agenda{
		UserID:       owner.ID,
		CalendarID:   calendar.ID,
		SlotDuration: 30,
		AliasName:    alias,
		IsActive:     true,
	}
	assert.NoError(t, storage.DB.Create(&agenda).Error)

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	rule := models.AvailabilitySlot{
		UserID:    owner.ID,
		DayOfWeek: (int(tomorrow.Weekday()) + 6) % 7,
		StartTime: "09:00",
		EndTime:   "10:00",
	}
	assert.NoError(t, storage.DB.Create(&rule).Error)

	firstSlot := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 9, 0, 0, 0, time.UTC)
	return alias, firstSlot
}

func fetchSlots(t *testing.T, ts *httptest.Server, alias string) []handlers.BookMeetingRequest {
	res, err := http.Get(ts.URL + "/agendas/public/" + alias + "/slots")
	assert.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var slots []struct {
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&slots))

	out := make([]handlers.BookMeetingRequest, 0, len(slots))
	for _, s := range slots {
		out = append(out, handlers.BookMeetingRequest{StartTime: s.StartTime, EndTime: s.EndTime})
	}
	return out
}

func bookSlot(t *testing.T, ts *httptest.Server, alias, email string, start, end time.Time) *http.Response {
	body, err := json.Marshal(handlers.BookMeetingRequest{
		StartTime:     start,
		EndTime:       end,
		BookedByEmail: email,
		MeetingType:   models.MeetingTypeInPerson,
	})
	assert.NoError(t, err)

	res, err := http.Post(ts.URL+"/agendas/public/"+alias+"/book", "application/json", bytes.NewReader(body))
	assert.NoError(t, err)
	return res
}

func decodeError(t *testing.T, res *http.Response) (string, string) {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body.Code, body.Message
}

func TestBookingFlow(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	alias, firstSlot := createBookableAgenda(t)

	// Окно 09:00–10:00 с 30-минутными слотами даёт ровно два кандидата.
	slots := fetchSlots(t, ts, alias)
	assert.Len(t, slots, 2)
	assert.True(t, slots[0].StartTime.Equal(firstSlot), "первый слот должен начинаться в 09:00")
	assert.True(t, slots[1].StartTime.Equal(firstSlot.Add(30*time.Minute)))

	// Повторный запрос без бронирований возвращает то же самое.
	again := fetchSlots(t, ts, alias)
	assert.Equal(t, len(slots), len(again))

	// Бронируем первый слот.
	res := bookSlot(t, ts, alias, "visitor@example.com", slots[0].StartTime, slots[0].EndTime)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var meeting handlers.MeetingResponse
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&meeting))
	assert.Equal(t, models.MeetingStatusBooked, meeting.Status)

	// Из списка пропал ровно забронированный интервал.
	remaining := fetchSlots(t, ts, alias)
	assert.Len(t, remaining, 1)
	assert.True(t, remaining[0].StartTime.Equal(firstSlot.Add(30*time.Minute)))

	// Повторное бронирование того же интервала отклоняется.
	res2 := bookSlot(t, ts, alias, "another@example.com", slots[0].StartTime, slots[0].EndTime)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res2.StatusCode)
	code, msg := decodeError(t, res2)
	assert.Equal(t, "SLOT_TAKEN", code)
	assert.Equal(t, "Slot already booked", msg)
}

func TestBookingQuota(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	alias, _ := createBookableAgenda(t)
	os.Setenv("BOOKING_QUOTA", "1")
	defer os.Unsetenv("BOOKING_QUOTA")

	slots := fetchSlots(t, ts, alias)
	assert.Len(t, slots, 2)

	res := bookSlot(t, ts, alias, "greedy@example.com", slots[0].StartTime, slots[0].EndTime)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Второй слот свободен, но лимит посетителя уже исчерпан.
	res2 := bookSlot(t, ts, alias, "greedy@example.com", slots[1].StartTime, slots[1].EndTime)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res2.StatusCode)
	code, msg := decodeError(t, res2)
	assert.Equal(t, "QUOTA_EXCEEDED", code)
	assert.Equal(t, "Booking limit reached for this agenda", msg)

	// Другому посетителю слот всё ещё доступен.
	res3 := bookSlot(t, ts, alias, "polite@example.com", slots[1].StartTime, slots[1].EndTime)
	defer res3.Body.Close()
	assert.Equal(t, http.StatusOK, res3.StatusCode)
}

func TestConcurrentBookingSameSlot(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	alias, _ := createBookableAgenda(t)
	slots := fetchSlots(t, ts, alias)
	assert.Len(t, slots, 2)

	// Два одновременных запроса на один интервал: успех получает ровно один.
	results := make(chan int, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := bookSlot(t, ts, alias, fmt.Sprintf("racer%d@example.com", i), slots[0].StartTime, slots[0].EndTime)
			defer res.Body.Close()
			results <- res.StatusCode
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for code := range results {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			rejected++
		}
	}
	assert.Equal(t, 1, ok, "ровно одно бронирование должно пройти")
	assert.Equal(t, 1, rejected, "второе должно получить отказ")

	var count int64
	storage.DB.Model(&models.Meeting{}).
		Joins("JOIN agendas ON agendas.id = meetings.agenda_id").
		Where("agendas.alias_name = ? AND meetings.status = ?", alias, models.MeetingStatusBooked).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPublicAgendaNotFound(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/agendas/public/no-such-agenda")
	assert.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	code, msg := decodeError(t, res)
	assert.Equal(t, "AGENDA_NOT_FOUND", code)
	assert.Equal(t, "Agenda not found", msg)
}
