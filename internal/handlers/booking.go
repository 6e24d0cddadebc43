package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"smartcal/internal/mailer"
	"smartcal/internal/models"
	"smartcal/internal/response"
	"smartcal/internal/schedule"
	"smartcal/internal/storage"
	"smartcal/internal/ws"

	"github.com/gin-gonic/gin"
)

var bookingCtx = context.Background()

// DefaultHorizonDays — горизонт публичного списка слотов по умолчанию.
const DefaultHorizonDays = 7

const slotsCacheTTL = 30 * time.Second

type BookMeetingRequest struct {
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	BookedByEmail    string    `json:"booked_by_email" binding:"required,email"`
	MeetingType      string    `json:"meeting_type" binding:"required,oneof=virtual in-person"`
	TravelTimeBefore int       `json:"travel_time_before"`
	TravelTimeAfter  int       `json:"travel_time_after"`
	VirtualApp       string    `json:"virtual_app"`
}

type MeetingResponse struct {
	ID               uint      `json:"id"`
	AgendaID         uint      `json:"agenda_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	BookedByEmail    string    `json:"booked_by_email"`
	MeetingType      string    `json:"meeting_type"`
	TravelTimeBefore int       `json:"travel_time_before"`
	TravelTimeAfter  int       `json:"travel_time_after"`
	VirtualApp       string    `json:"virtual_app,omitempty"`
	JoinLink         string    `json:"join_link,omitempty"`
	Status           string    `json:"status"`
	IsExternal       bool      `json:"is_external,omitempty"`
}

func toMeetingResponse(m models.Meeting) MeetingResponse {
	return MeetingResponse{
		ID:               m.ID,
		AgendaID:         m.AgendaID,
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		BookedByEmail:    m.BookedByEmail,
		MeetingType:      m.MeetingType,
		TravelTimeBefore: m.TravelTimeBefore,
		TravelTimeAfter:  m.TravelTimeAfter,
		VirtualApp:       m.VirtualApp,
		JoinLink:         m.JoinLink,
		Status:           m.Status,
	}
}

func slotsCacheKey(alias string, days int) string {
	return fmt.Sprintf("slots:%s:%d", alias, days)
}

// invalidateSlotsCache сбрасывает закэшированные списки слотов повестки после
// бронирования или отмены.
func invalidateSlotsCache(alias string) {
	keys, err := storage.RedisClient.Keys(bookingCtx, "slots:"+alias+":*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	storage.RedisClient.Del(bookingCtx, keys...)
}

// @Summary		Свободные слоты повестки
// @Description	Возвращает свободные интервалы на ближайшие дни (по умолчанию 7, максимум 30). Список справочный: итоговую проверку делает бронирование.
// @Tags			booking
// @Produce		json
// @Param			alias_name	path		string	true	"Псевдоним повестки"
// @Param			days		query		int		false	"Горизонт в днях"
// @Success		200			{array}		response.SlotResponse
// @Failure		404			{object}	response.ErrorResponse	"Повестка не найдена (AGENDA_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/agendas/public/{alias_name}/slots [get]
func GetPublicSlots(c *gin.Context) {
	alias := c.Param("alias_name")

	days := DefaultHorizonDays
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 30 {
			days = n
		}
	}

	cacheKey := slotsCacheKey(alias, days)
	if cached, err := storage.RedisClient.Get(bookingCtx, cacheKey).Result(); err == nil && cached != "" {
		var slots []response.SlotResponse
		if err := json.Unmarshal([]byte(cached), &slots); err == nil {
			c.JSON(http.StatusOK, slots)
			return
		}
	}

	open, err := schedule.ListOpenSlots(storage.DB, alias, time.Now().UTC(), days)
	if err != nil {
		if errors.Is(err, schedule.ErrAgendaNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "AGENDA_NOT_FOUND",
				Message: "Agenda not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки слотов",
		})
		return
	}

	slots := make([]response.SlotResponse, 0, len(open))
	for _, s := range open {
		slots = append(slots, response.SlotResponse{StartTime: s.Start, EndTime: s.End})
	}

	if payload, err := json.Marshal(slots); err == nil {
		storage.RedisClient.Set(bookingCtx, cacheKey, payload, slotsCacheTTL)
	}

	c.JSON(http.StatusOK, slots)
}

// @Summary		Бронирование слота
// @Description	Атомарно бронирует интервал на повестке. Конкурирующие запросы на один интервал сериализуются: успех получает ровно один.
// @Tags			booking
// @Accept			json
// @Produce		json
// @Param			alias_name	path		string				true	"Псевдоним повестки"
// @Param			meeting		body		BookMeetingRequest	true	"Данные бронирования"
// @Success		200			{object}	MeetingResponse
// @Failure		400			{object}	response.ErrorResponse	"Лимит бронирований (QUOTA_EXCEEDED), слот занят (SLOT_TAKEN) или ошибка валидации (VALIDATION_ERROR)"
// @Failure		404			{object}	response.ErrorResponse	"Повестка не найдена (AGENDA_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/agendas/public/{alias_name}/book [post]
func BookMeeting(c *gin.Context) {
	alias := c.Param("alias_name")

	var req BookMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Validation error",
			Details: err.Error(),
		})
		return
	}

	if !req.EndTime.After(req.StartTime) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid interval: end_time must be after start_time",
		})
		return
	}
	if req.TravelTimeBefore < 0 || req.TravelTimeAfter < 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Travel buffers must not be negative",
		})
		return
	}

	meeting, err := schedule.BookSlot(storage.DB, alias, schedule.BookingRequest{
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		BookedByEmail:    req.BookedByEmail,
		MeetingType:      req.MeetingType,
		TravelTimeBefore: req.TravelTimeBefore,
		TravelTimeAfter:  req.TravelTimeAfter,
		VirtualApp:       req.VirtualApp,
	}, schedule.VisitorQuota())
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrAgendaNotFound):
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "AGENDA_NOT_FOUND",
				Message: "Agenda not found",
			})
		case errors.Is(err, schedule.ErrQuotaExceeded):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "QUOTA_EXCEEDED",
				Message: "Booking limit reached for this agenda",
			})
		case errors.Is(err, schedule.ErrSlotTaken):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "SLOT_TAKEN",
				Message: "Slot already booked",
			})
		default:
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка при бронировании",
				Details: err.Error(),
			})
		}
		return
	}

	invalidateSlotsCache(alias)

	// Подтверждение уходит в фоне: бронирование уже зафиксировано, сбой
	// доставки его не откатывает.
	confirmation := fmt.Sprintf("Your meeting is booked for %s - %s on %s/agendas/public/%s",
		meeting.StartTime.Format(time.RFC3339), meeting.EndTime.Format(time.RFC3339), baseURL(), alias)
	if meeting.JoinLink != "" {
		confirmation += "\nJoin link: " + meeting.JoinLink
	}
	mailer.SendAsync(meeting.BookedByEmail, "Booking Confirmation", confirmation)

	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType:   "slot_booked",
		AgendaAlias: alias,
		Data: map[string]interface{}{
			"start_time": meeting.StartTime,
			"end_time":   meeting.EndTime,
		},
	})

	c.JSON(http.StatusOK, toMeetingResponse(*meeting))
}

// @Summary		Встречи повестки
// @Description	Возвращает встречи собственной повестки владельца
// @Tags			booking
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"ID повестки"
// @Success		200	{array}		MeetingResponse
// @Failure		404	{object}	response.ErrorResponse	"Повестка не найдена (AGENDA_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/agendas/{id}/meetings [get]
func ListAgendaMeetings(c *gin.Context) {
	agendaID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор повестки",
		})
		return
	}

	var agenda models.Agenda
	if err := storage.DB.Where("id = ? AND user_id = ?", agendaID, c.GetUint("userID")).
		First(&agenda).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "AGENDA_NOT_FOUND",
			Message: "Повестка не найдена",
		})
		return
	}

	var meetings []models.Meeting
	if err := storage.DB.Where("agenda_id = ?", agenda.ID).
		Order("start_time ASC").
		Find(&meetings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки встреч",
		})
		return
	}

	out := make([]MeetingResponse, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, toMeetingResponse(m))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Отмена встречи
// @Description	Переводит встречу в статус cancelled. Доступно только владельцу повестки; cancelled — терминальный статус.
// @Tags			booking
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"ID встречи"
// @Success		200	{object}	MeetingResponse
// @Failure		400	{object}	response.ErrorResponse	"Встреча уже отменена (ALREADY_CANCELLED)"
// @Failure		404	{object}	response.ErrorResponse	"Встреча не найдена (MEETING_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/agendas/meetings/{id} [delete]
func CancelMeeting(c *gin.Context) {
	meetingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор встречи",
		})
		return
	}

	meeting, err := schedule.CancelMeeting(storage.DB, c.GetUint("userID"), uint(meetingID))
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrMeetingNotFound):
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "MEETING_NOT_FOUND",
				Message: "Встреча не найдена",
			})
		case errors.Is(err, schedule.ErrAlreadyCancelled):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "ALREADY_CANCELLED",
				Message: "Встреча уже отменена",
			})
		default:
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка при отмене встречи",
			})
		}
		return
	}

	var agenda models.Agenda
	if err := storage.DB.First(&agenda, meeting.AgendaID).Error; err == nil {
		invalidateSlotsCache(agenda.AliasName)
		ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
			EventType:   "meeting_cancelled",
			AgendaAlias: agenda.AliasName,
			Data: map[string]interface{}{
				"start_time": meeting.StartTime,
				"end_time":   meeting.EndTime,
			},
		})
	}

	mailer.SendAsync(meeting.BookedByEmail, "Meeting Cancelled",
		fmt.Sprintf("Your meeting %s - %s has been cancelled.",
			meeting.StartTime.Format(time.RFC3339), meeting.EndTime.Format(time.RFC3339)))

	c.JSON(http.StatusOK, toMeetingResponse(*meeting))
}
