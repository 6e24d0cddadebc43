package handlers

import (
	"net/http"
	"strconv"
	"time"

	"smartcal/internal/models"
	"smartcal/internal/response"
	"smartcal/internal/storage"

	"github.com/gin-gonic/gin"
)

type TeamCreateRequest struct {
	Name    string   `json:"name" binding:"required,max=100"`
	Members []string `json:"members" binding:"required,dive,email"`
}

type TeamUpdateRequest struct {
	Name    *string   `json:"name"`
	Members *[]string `json:"members"`
}

type TeamResponse struct {
	ID      uint     `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// @Summary		Создание команды
// @Description	Создаёт команду с участниками по email
// @Tags			teams
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			team	body		TeamCreateRequest	true	"Данные команды"
// @Success		201		{object}	TeamResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/teams [post]
func CreateTeam(c *gin.Context) {
	var req TeamCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	team := models.Team{
		UserID: c.GetUint("userID"),
		Name:   req.Name,
	}
	for _, email := range req.Members {
		team.Members = append(team.Members, models.TeamMember{Email: email})
	}

	if err := storage.DB.Create(&team).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании команды",
		})
		return
	}

	c.JSON(http.StatusCreated, TeamResponse{ID: team.ID, Name: team.Name, Members: req.Members})
}

// @Summary		Обновление команды
// @Description	Обновляет название команды и/или полностью заменяет список участников
// @Tags			teams
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int					true	"ID команды"
// @Param			team	body		TeamUpdateRequest	true	"Изменяемые поля"
// @Success		200		{object}	TeamResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Команда не найдена (TEAM_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/teams/{id} [put]
func UpdateTeam(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор команды",
		})
		return
	}

	var req TeamUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var team models.Team
	if err := storage.DB.Where("id = ? AND user_id = ?", teamID, c.GetUint("userID")).
		First(&team).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "TEAM_NOT_FOUND",
			Message: "Команда не найдена",
		})
		return
	}

	if req.Name != nil {
		team.Name = *req.Name
		if err := storage.DB.Save(&team).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка при обновлении команды",
			})
			return
		}
	}

	if req.Members != nil {
		if err := storage.DB.Where("team_id = ?", team.ID).
			Delete(&models.TeamMember{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка при замене участников команды",
			})
			return
		}
		for _, email := range *req.Members {
			member := models.TeamMember{TeamID: team.ID, Email: email}
			if err := storage.DB.Create(&member).Error; err != nil {
				c.JSON(http.StatusInternalServerError, response.ErrorResponse{
					Code:    "DB_ERROR",
					Message: "Ошибка при добавлении участника команды",
				})
				return
			}
		}
	}

	var members []models.TeamMember
	storage.DB.Where("team_id = ?", team.ID).Find(&members)
	emails := make([]string, 0, len(members))
	for _, m := range members {
		emails = append(emails, m.Email)
	}

	c.JSON(http.StatusOK, TeamResponse{ID: team.ID, Name: team.Name, Members: emails})
}

type TeamMeetingRequest struct {
	AgendaID         uint      `json:"agenda_id" binding:"required"`
	StartTime        time.Time `json:"start_time" binding:"required"`
	EndTime          time.Time `json:"end_time" binding:"required"`
	MeetingType      string    `json:"meeting_type" binding:"required,oneof=virtual in-person"`
	TravelTimeBefore int       `json:"travel_time_before"`
	TravelTimeAfter  int       `json:"travel_time_after"`
	VirtualApp       string    `json:"virtual_app"`
}

// @Summary		Командная встреча
// @Description	Создаёт встречу для каждого участника команды. Участники без аккаунта помечаются is_external.
// @Tags			teams
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			team_id	query		int					true	"ID команды"
// @Param			meeting	body		TeamMeetingRequest	true	"Данные встречи"
// @Success		201		{array}		MeetingResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404		{object}	response.ErrorResponse	"Команда или повестка не найдена (TEAM_NOT_FOUND, AGENDA_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/teams/meetings [post]
func CreateTeamMeeting(c *gin.Context) {
	teamID, err := strconv.Atoi(c.Query("team_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор команды",
		})
		return
	}

	var req TeamMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	if !req.EndTime.After(req.StartTime) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Время окончания должно быть позже времени начала",
		})
		return
	}

	userID := c.GetUint("userID")

	var team models.Team
	if err := storage.DB.Preload("Members").
		Where("id = ? AND user_id = ?", teamID, userID).
		First(&team).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "TEAM_NOT_FOUND",
			Message: "Команда не найдена",
		})
		return
	}

	var agenda models.Agenda
	if err := storage.DB.Where("id = ? AND user_id = ?", req.AgendaID, userID).
		First(&agenda).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "AGENDA_NOT_FOUND",
			Message: "Повестка не найдена",
		})
		return
	}

	out := make([]MeetingResponse, 0, len(team.Members))
	for _, member := range team.Members {
		var registered models.User
		isExternal := storage.DB.Where("email = ?", member.Email).
			First(&registered).Error != nil

		meeting := models.Meeting{
			AgendaID:         agenda.ID,
			StartTime:        req.StartTime.UTC(),
			EndTime:          req.EndTime.UTC(),
			BookedByEmail:    member.Email,
			MeetingType:      req.MeetingType,
			TravelTimeBefore: req.TravelTimeBefore,
			TravelTimeAfter:  req.TravelTimeAfter,
			VirtualApp:       req.VirtualApp,
			Status:           models.MeetingStatusBooked,
		}
		if err := storage.DB.Create(&meeting).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка при создании встречи",
			})
			return
		}

		resp := toMeetingResponse(meeting)
		resp.IsExternal = isExternal
		out = append(out, resp)
	}

	c.JSON(http.StatusCreated, out)
}
