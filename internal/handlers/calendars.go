package handlers

import (
	"net/http"
	"strconv"

	"smartcal/internal/models"
	"smartcal/internal/response"
	"smartcal/internal/storage"
	"smartcal/internal/tasks"

	"github.com/gin-gonic/gin"
)

type CalendarCreateRequest struct {
	Alias         string `json:"alias" binding:"required,max=100"`
	IsPrimary     bool   `json:"is_primary"`
	SyncDirection string `json:"sync_direction"` // 'one-way' или 'two-way'
	SubjectPrefix string `json:"subject_prefix"`
}

type CalendarUpdateRequest struct {
	Alias         *string `json:"alias"`
	IsPrimary     *bool   `json:"is_primary"`
	SyncDirection *string `json:"sync_direction"`
	SubjectPrefix *string `json:"subject_prefix"`
}

type CalendarResponse struct {
	ID            uint   `json:"id"`
	Alias         string `json:"alias"`
	IsPrimary     bool   `json:"is_primary"`
	SyncDirection string `json:"sync_direction"`
	SubjectPrefix string `json:"subject_prefix,omitempty"`
}

func toCalendarResponse(cal models.Calendar) CalendarResponse {
	return CalendarResponse{
		ID:            cal.ID,
		Alias:         cal.Alias,
		IsPrimary:     cal.IsPrimary,
		SyncDirection: cal.SyncDirection,
		SubjectPrefix: cal.SubjectPrefix,
	}
}

func validSyncDirection(s string) bool {
	return s == "one-way" || s == "two-way"
}

// @Summary		Создание календаря
// @Description	Создаёт календарь. Первый календарь пользователя автоматически становится основным; явный is_primary снимает флаг с остальных.
// @Tags			calendars
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			calendar	body		CalendarCreateRequest	true	"Данные календаря"
// @Success		201			{object}	CalendarResponse
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/calendars [post]
func CreateCalendar(c *gin.Context) {
	var req CalendarCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	if req.SyncDirection == "" {
		req.SyncDirection = "one-way"
	}
	if !validSyncDirection(req.SyncDirection) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Направление синхронизации должно быть 'one-way' или 'two-way'",
		})
		return
	}

	userID := c.GetUint("userID")

	// Инвариант: не более одного основного календаря на пользователя.
	if req.IsPrimary {
		storage.DB.Model(&models.Calendar{}).
			Where("user_id = ? AND is_primary = ?", userID, true).
			Update("is_primary", false)
	} else {
		var primary models.Calendar
		if err := storage.DB.Where("user_id = ? AND is_primary = ?", userID, true).
			First(&primary).Error; err != nil {
			req.IsPrimary = true
		}
	}

	calendar := models.Calendar{
		UserID:        userID,
		Alias:         req.Alias,
		IsPrimary:     req.IsPrimary,
		SyncDirection: req.SyncDirection,
		SubjectPrefix: req.SubjectPrefix,
	}

	if err := storage.DB.Create(&calendar).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании календаря",
		})
		return
	}

	c.JSON(http.StatusCreated, toCalendarResponse(calendar))
}

// @Summary		Список календарей
// @Description	Возвращает календари авторизованного пользователя
// @Tags			calendars
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		CalendarResponse
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/calendars [get]
func ListCalendars(c *gin.Context) {
	userID := c.GetUint("userID")

	var calendars []models.Calendar
	if err := storage.DB.Where("user_id = ?", userID).Find(&calendars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки календарей",
		})
		return
	}

	out := make([]CalendarResponse, 0, len(calendars))
	for _, cal := range calendars {
		out = append(out, toCalendarResponse(cal))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Обновление календаря
// @Description	Частичное обновление календаря: применяются только переданные поля
// @Tags			calendars
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id			path		int						true	"ID календаря"
// @Param			calendar	body		CalendarUpdateRequest	true	"Изменяемые поля"
// @Success		200			{object}	CalendarResponse
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404			{object}	response.ErrorResponse	"Календарь не найден (CALENDAR_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/calendars/{id} [put]
func UpdateCalendar(c *gin.Context) {
	calendarID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор календаря",
		})
		return
	}

	var req CalendarUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	userID := c.GetUint("userID")
	var calendar models.Calendar
	if err := storage.DB.Where("id = ? AND user_id = ?", calendarID, userID).
		First(&calendar).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "CALENDAR_NOT_FOUND",
			Message: "Календарь не найден",
		})
		return
	}

	if req.SyncDirection != nil && !validSyncDirection(*req.SyncDirection) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Направление синхронизации должно быть 'one-way' или 'two-way'",
		})
		return
	}

	if req.IsPrimary != nil && *req.IsPrimary {
		storage.DB.Model(&models.Calendar{}).
			Where("user_id = ? AND is_primary = ?", userID, true).
			Update("is_primary", false)
		calendar.IsPrimary = true
	}
	if req.Alias != nil {
		calendar.Alias = *req.Alias
	}
	if req.SyncDirection != nil {
		calendar.SyncDirection = *req.SyncDirection
	}
	if req.SubjectPrefix != nil {
		calendar.SubjectPrefix = *req.SubjectPrefix
	}

	if err := storage.DB.Save(&calendar).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении календаря",
		})
		return
	}

	// Переключение на двустороннюю синхронизацию запускает сверку с основным
	// календарём в фоне.
	if req.SyncDirection != nil && *req.SyncDirection == "two-way" {
		go tasks.SyncSecondaryToPrimary(userID)
	}

	c.JSON(http.StatusOK, toCalendarResponse(calendar))
}
