package handlers

import (
	"net/http"
	"strconv"

	"smartcal/internal/models"
	"smartcal/internal/response"
	"smartcal/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AdminCreateUserRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Alias       string `json:"alias" binding:"required,min=3,max=50"`
	Role        string `json:"role" binding:"required"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

// @Summary		Создание пользователя администратором
// @Description	Создаёт пользователя с указанной ролью. Только для суперадмина.
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			user	body		AdminCreateUserRequest	true	"Данные пользователя"
// @Success		201		{object}	UserResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, INVALID_ROLE, EMAIL_EXISTS, ALIAS_EXISTS)"
// @Failure		403		{object}	response.ErrorResponse	"Недостаточно прав (FORBIDDEN)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/users/admin/create_user [post]
func AdminCreateUser(c *gin.Context) {
	var req AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	if req.Role != models.RoleUser && req.Role != models.RoleSuperadmin {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ROLE",
			Message: "Недопустимая роль",
		})
		return
	}

	var existing models.User
	if err := storage.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "EMAIL_EXISTS",
			Message: "Пользователь с таким email уже существует",
		})
		return
	}
	if err := storage.DB.Where("alias = ?", req.Alias).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "ALIAS_EXISTS",
			Message: "Псевдоним уже занят",
		})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Ошибка при хешировании пароля",
		})
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Alias:        req.Alias,
		ImageURL:     req.ImageURL,
		Description:  req.Description,
		Role:         req.Role,
	}

	if err := storage.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании пользователя",
		})
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// @Summary		Список пользователей
// @Description	Возвращает всех пользователей. Только для суперадмина.
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		UserResponse
// @Failure		403	{object}	response.ErrorResponse	"Недостаточно прав (FORBIDDEN)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/users/admin/users [get]
func AdminListUsers(c *gin.Context) {
	var users []models.User
	if err := storage.DB.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки пользователей",
		})
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

type AdminUpdateUserRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Alias           *string `json:"alias"`
	ImageURL        *string `json:"image_url"`
	Description     *string `json:"description"`
	Role            *string `json:"role"`
	SendDailyAgenda *bool   `json:"send_daily_agenda"`
	AgendaSendTime  *string `json:"agenda_send_time"`
	Timezone        *string `json:"timezone"`
}

// @Summary		Обновление пользователя администратором
// @Description	Частичное обновление пользователя: применяются только переданные поля. Только для суперадмина.
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int						true	"ID пользователя"
// @Param			user	body		AdminUpdateUserRequest	true	"Изменяемые поля"
// @Success		200		{object}	UserResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, INVALID_ROLE, EMAIL_EXISTS, ALIAS_EXISTS)"
// @Failure		404		{object}	response.ErrorResponse	"Пользователь не найден (USER_NOT_FOUND)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/users/admin/users/{id} [put]
func AdminUpdateUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный идентификатор пользователя",
		})
		return
	}

	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "Пользователь не найден",
		})
		return
	}

	if req.Role != nil && *req.Role != models.RoleUser && *req.Role != models.RoleSuperadmin {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ROLE",
			Message: "Недопустимая роль",
		})
		return
	}

	var existing models.User
	if req.Email != nil {
		if err := storage.DB.Where("email = ? AND id <> ?", *req.Email, user.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "EMAIL_EXISTS",
				Message: "Пользователь с таким email уже существует",
			})
			return
		}
	}
	if req.Alias != nil {
		if err := storage.DB.Where("alias = ? AND id <> ?", *req.Alias, user.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "ALIAS_EXISTS",
				Message: "Псевдоним уже занят",
			})
			return
		}
	}
	if req.AgendaSendTime != nil && *req.AgendaSendTime != "" && !validClock(*req.AgendaSendTime) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Время отправки сводки должно быть в формате 'HH:MM'",
		})
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Alias != nil {
		user.Alias = *req.Alias
	}
	if req.ImageURL != nil {
		user.ImageURL = *req.ImageURL
	}
	if req.Description != nil {
		user.Description = *req.Description
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.SendDailyAgenda != nil {
		user.SendDailyAgenda = *req.SendDailyAgenda
	}
	if req.AgendaSendTime != nil {
		user.AgendaSendTime = *req.AgendaSendTime
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}

	if err := storage.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении пользователя",
		})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
