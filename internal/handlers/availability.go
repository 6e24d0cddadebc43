package handlers

import (
	"net/http"
	"strconv"

	"smartcal/internal/models"
	"smartcal/internal/response"
	"smartcal/internal/schedule"
	"smartcal/internal/storage"

	"github.com/gin-gonic/gin"
)

type AvailabilitySlotRequest struct {
	DayOfWeek *int   `json:"day_of_week" binding:"required"` // 0=понедельник .. 6=воскресенье
	StartTime string `json:"start_time" binding:"required"`  // 'HH:MM'
	EndTime   string `json:"end_time" binding:"required"`    // 'HH:MM'
}

type AvailabilitySlotUpdateRequest struct {
	DayOfWeek *int    `json:"day_of_week"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type AvailabilitySlotResponse struct {
	ID        uint   `json:"id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toAvailabilityResponse(s models.AvailabilitySlot) AvailabilitySlotResponse {
	return AvailabilitySlotResponse{
		ID:        s.ID,
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
	}
}

// validateWindow проверяет день недели и окно start < end.
func validateWindow(day int, start, end string) string {
	if day < 0 || day > 6 {
		return "День недели должен быть в диапазоне 0..6"
	}
	startMin, err := schedule.ParseClock(start)
	if err != nil {
		return "Время начала должно быть в формате 'HH:MM'"
	}
	endMin, err := schedule.ParseClock(end)
	if err != nil {
		return "Время окончания должно быть в формате 'HH:MM'"
	}
	if endMin <= startMin {
		return "Время окончания должно быть позже времени начала"
	}
	return ""
}

// @Summary		Добавление окна доступности
// @Description	Создаёт еженедельное окно доступности владельца
// @Tags			availability
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			slot	body		AvailabilitySlotRequest	true	"Окно доступности"
// @Success		201		{object}	AvailabilitySlotResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/availability/slots [post]
func AddAvailabilitySlot(c *gin.Context) {
	var req AvailabilitySlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	if msg := validateWindow(*req.DayOfWeek, req.StartTime, req.EndTime); msg != "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: msg,
		})
		return
	}

	slot := models.AvailabilitySlot{
		UserID:    c.GetUint("userID"),
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	if err := storage.DB.Create(&slot).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании окна доступности",
		})
		return
	}

	c.JSON(http.StatusCreated, toAvailabilityResponse(slot))
}

// @Summary		Список окон доступности
// @Description	Возвращает окна доступности авторизованного пользователя
// @Tags			availability
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		AvailabilitySlotResponse
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/availability/slots [get]
func ListAvailabilitySlots(c *gin.Context) {
	var slots []models.AvailabilitySlot
	if err := storage.DB.Where("user_id = ?", c.GetUint("userID")).
		Order("day_of_week ASC, start_time ASC").
		Find(&slots).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки окон доступности",
		})
		return
	}

	out := make([]AvailabilitySlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toAvailabilityResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Обновление окна доступности
// @Description	Частичное обновление окна: применяются только переданные поля
// @Tags			availability
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int								true	"ID окна"
// @Param			slot	body		AvailabilitySlotUpdateRequest	true	"Изменяемые поля"
// @Success		200		{object}	AvailabilitySlotResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Окно не найдено (SLOT_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/availability/slots/{id} [put]
func UpdateAvailabilitySlot(c *gin.Context) {
	slotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор окна доступности",
		})
		return
	}

	var req AvailabilitySlotUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var slot models.AvailabilitySlot
	if err := storage.DB.Where("id = ? AND user_id = ?", slotID, c.GetUint("userID")).
		First(&slot).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SLOT_NOT_FOUND",
			Message: "Окно доступности не найдено",
		})
		return
	}

	day := slot.DayOfWeek
	start := slot.StartTime
	end := slot.EndTime
	if req.DayOfWeek != nil {
		day = *req.DayOfWeek
	}
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if msg := validateWindow(day, start, end); msg != "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: msg,
		})
		return
	}

	slot.DayOfWeek = day
	slot.StartTime = start
	slot.EndTime = end

	if err := storage.DB.Save(&slot).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении окна доступности",
		})
		return
	}

	c.JSON(http.StatusOK, toAvailabilityResponse(slot))
}

// @Summary		Удаление окна доступности
// @Description	Удаляет окно доступности владельца
// @Tags			availability
// @Produce		json
// @Security		BearerAuth
// @Param			id	path	int	true	"ID окна"
// @Success		204	"Окно удалено"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Окно не найдено (SLOT_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/availability/slots/{id} [delete]
func DeleteAvailabilitySlot(c *gin.Context) {
	slotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор окна доступности",
		})
		return
	}

	var slot models.AvailabilitySlot
	if err := storage.DB.Where("id = ? AND user_id = ?", slotID, c.GetUint("userID")).
		First(&slot).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SLOT_NOT_FOUND",
			Message: "Окно доступности не найдено",
		})
		return
	}

	if err := storage.DB.Delete(&slot).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении окна доступности",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
