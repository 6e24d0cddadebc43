package handlers

import (
	"net/http"
	"strconv"

	"smartcal/internal/models"
	"smartcal/internal/response"
	"smartcal/internal/storage"

	"github.com/gin-gonic/gin"
)

type AgendaCreateRequest struct {
	CalendarID   uint   `json:"calendar_id" binding:"required"`
	SlotDuration int    `json:"slot_duration" binding:"required"` // 30, 45 или 60
	AliasName    string `json:"alias_name" binding:"required,min=3,max=100"`
	IsActive     *bool  `json:"is_active"`
}

type AgendaUpdateRequest struct {
	SlotDuration *int    `json:"slot_duration"`
	AliasName    *string `json:"alias_name"`
	IsActive     *bool   `json:"is_active"`
}

type AgendaResponse struct {
	ID           uint   `json:"id"`
	CalendarID   uint   `json:"calendar_id"`
	SlotDuration int    `json:"slot_duration"`
	AliasName    string `json:"alias_name"`
	IsActive     bool   `json:"is_active"`
}

func toAgendaResponse(a models.Agenda) AgendaResponse {
	return AgendaResponse{
		ID:           a.ID,
		CalendarID:   a.CalendarID,
		SlotDuration: a.SlotDuration,
		AliasName:    a.AliasName,
		IsActive:     a.IsActive,
	}
}

// @Summary		Создание повестки
// @Description	Создаёт публичную страницу бронирования с уникальным псевдонимом
// @Tags			agendas
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			agenda	body		AgendaCreateRequest	true	"Данные повестки"
// @Success		201		{object}	AgendaResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, ALIAS_EXISTS) или чужой календарь (CALENDAR_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/agendas [post]
func CreateAgenda(c *gin.Context) {
	var req AgendaCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	if !validSlotDuration(req.SlotDuration) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Длительность слота должна быть 30, 45 или 60 минут",
		})
		return
	}

	userID := c.GetUint("userID")

	var calendar models.Calendar
	if err := storage.DB.Where("id = ? AND user_id = ?", req.CalendarID, userID).
		First(&calendar).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "CALENDAR_NOT_FOUND",
			Message: "Календарь не найден",
		})
		return
	}

	var existing models.Agenda
	if err := storage.DB.Where("alias_name = ?", req.AliasName).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ALIAS_EXISTS",
			Message: "Псевдоним повестки уже занят",
		})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	agenda := models.Agenda{
		UserID:       userID,
		CalendarID:   req.CalendarID,
		SlotDuration: req.SlotDuration,
		AliasName:    req.AliasName,
		IsActive:     isActive,
	}

	if err := storage.DB.Create(&agenda).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании повестки",
		})
		return
	}

	c.JSON(http.StatusCreated, toAgendaResponse(agenda))
}

// @Summary		Список повесток
// @Description	Возвращает повестки авторизованного пользователя
// @Tags			agendas
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		AgendaResponse
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/agendas [get]
func ListAgendas(c *gin.Context) {
	var agendas []models.Agenda
	if err := storage.DB.Where("user_id = ?", c.GetUint("userID")).Find(&agendas).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки повесток",
		})
		return
	}

	out := make([]AgendaResponse, 0, len(agendas))
	for _, a := range agendas {
		out = append(out, toAgendaResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Обновление повестки
// @Description	Частичное обновление повестки. Псевдоним нельзя менять после появления встреч.
// @Tags			agendas
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int					true	"ID повестки"
// @Param			agenda	body		AgendaUpdateRequest	true	"Изменяемые поля"
// @Success		200		{object}	AgendaResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, ALIAS_EXISTS, ALIAS_IMMUTABLE)"
// @Failure		404		{object}	response.ErrorResponse	"Повестка не найдена (AGENDA_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/agendas/{id} [put]
func UpdateAgenda(c *gin.Context) {
	agendaID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор повестки",
		})
		return
	}

	var req AgendaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
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

	if req.SlotDuration != nil && !validSlotDuration(*req.SlotDuration) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Длительность слота должна быть 30, 45 или 60 минут",
		})
		return
	}

	if req.AliasName != nil && *req.AliasName != agenda.AliasName {
		// Псевдоним с существующими встречами зафиксирован: по нему уже
		// разосланы ссылки на бронирование.
		var count int64
		storage.DB.Model(&models.Meeting{}).Where("agenda_id = ?", agenda.ID).Count(&count)
		if count > 0 {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "ALIAS_IMMUTABLE",
				Message: "Нельзя менять псевдоним повестки с существующими встречами",
			})
			return
		}

		var existing models.Agenda
		if err := storage.DB.Where("alias_name = ? AND id <> ?", *req.AliasName, agenda.ID).
			First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "ALIAS_EXISTS",
				Message: "Псевдоним повестки уже занят",
			})
			return
		}
		agenda.AliasName = *req.AliasName
	}

	if req.SlotDuration != nil {
		agenda.SlotDuration = *req.SlotDuration
	}
	if req.IsActive != nil {
		agenda.IsActive = *req.IsActive
	}

	if err := storage.DB.Save(&agenda).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении повестки",
		})
		return
	}

	c.JSON(http.StatusOK, toAgendaResponse(agenda))
}

// @Summary		Публичная повестка
// @Description	Возвращает активную повестку по псевдониму. Авторизация не требуется.
// @Tags			agendas
// @Produce		json
// @Param			alias_name	path		string	true	"Псевдоним повестки"
// @Success		200			{object}	AgendaResponse
// @Failure		404			{object}	response.ErrorResponse	"Повестка не найдена (AGENDA_NOT_FOUND)"
// @Router			/agendas/public/{alias_name} [get]
func GetPublicAgenda(c *gin.Context) {
	var agenda models.Agenda
	if err := storage.DB.Where("alias_name = ? AND is_active = ?", c.Param("alias_name"), true).
		First(&agenda).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "AGENDA_NOT_FOUND",
			Message: "Agenda not found",
		})
		return
	}

	c.JSON(http.StatusOK, toAgendaResponse(agenda))
}
