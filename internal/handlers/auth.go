package handlers

import (
	"net/http"
	"os"
	"time"

	"smartcal/internal/auth"
	"smartcal/internal/mailer"
	"smartcal/internal/models"
	"smartcal/internal/response"
	"smartcal/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Alias       string `json:"alias" binding:"required,min=3,max=50"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse — публичное представление пользователя.
type UserResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Alias           string `json:"alias"`
	ImageURL        string `json:"image_url,omitempty"`
	Description     string `json:"description,omitempty"`
	Role            string `json:"role"`
	SendDailyAgenda bool   `json:"send_daily_agenda"`
	AgendaSendTime  string `json:"agenda_send_time,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	Provider        string `json:"provider,omitempty"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Alias:           u.Alias,
		ImageURL:        u.ImageURL,
		Description:     u.Description,
		Role:            u.Role,
		SendDailyAgenda: u.SendDailyAgenda,
		AgendaSendTime:  u.AgendaSendTime,
		Timezone:        u.Timezone,
		Provider:        u.Provider,
	}
}

// @Summary		Регистрация пользователя
// @Description	Регистрация нового пользователя
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			user	body		RegisterRequest	true	"Данные пользователя"
// @Success		201		{object}	UserResponse	"Успешная регистрация"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR), email занят (EMAIL_EXISTS) или псевдоним занят (ALIAS_EXISTS)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (PASSWORD_HASH_ERROR, DB_ERROR)"
// @Router			/users/register [post]
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
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
		Role:         models.RoleUser,
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

// @Summary		Авторизация пользователя
// @Description	Авторизация пользователя и получение access токена
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			user	body		LoginRequest			true	"Данные для авторизации"
// @Success		200		{object}	response.TokenResponse	"Успешная авторизация"
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации данных (VALIDATION_ERROR)"
// @Failure		401		{object}	response.ErrorResponse	"Неверные учетные данные (INVALID_CREDENTIALS)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (TOKEN_GENERATION_ERROR)"
// @Router			/users/login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var user models.User
	if err := storage.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: "Неверный email или пароль",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: "Неверный email или пароль",
		})
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Ошибка при генерации access токена",
		})
		return
	}

	c.JSON(http.StatusOK, response.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

// @Summary		Текущий пользователь
// @Description	Возвращает профиль авторизованного пользователя
// @Tags			users
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	UserResponse
// @Failure		401	{object}	response.ErrorResponse	"Пользователь не найден (USER_NOT_FOUND)"
// @Router			/users/me [get]
func GetMe(c *gin.Context) {
	userID := c.GetUint("userID")

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "Пользователь не найден",
		})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type UpdateMeRequest struct {
	Name            *string `json:"name"`
	ImageURL        *string `json:"image_url"`
	Description     *string `json:"description"`
	SendDailyAgenda *bool   `json:"send_daily_agenda"`
	AgendaSendTime  *string `json:"agenda_send_time"` // 'HH:MM'
	Timezone        *string `json:"timezone"`
}

// @Summary		Обновление профиля
// @Description	Частичное обновление профиля: применяются только переданные поля
// @Tags			users
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			user	body		UpdateMeRequest	true	"Изменяемые поля"
// @Success		200		{object}	UserResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/users/me [put]
func UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	userID := c.GetUint("userID")
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "Пользователь не найден",
		})
		return
	}

	if req.AgendaSendTime != nil && *req.AgendaSendTime != "" {
		if !validClock(*req.AgendaSendTime) {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Время отправки сводки должно быть в формате 'HH:MM'",
			})
			return
		}
	}
	if req.Timezone != nil && *req.Timezone != "" {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неизвестный часовой пояс",
			})
			return
		}
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.ImageURL != nil {
		user.ImageURL = *req.ImageURL
	}
	if req.Description != nil {
		user.Description = *req.Description
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
			Message: "Ошибка при обновлении профиля",
		})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// @Summary		Запрос сброса пароля
// @Description	Отправляет ссылку для сброса пароля, если email зарегистрирован. Ответ одинаков для любого email.
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			data	body		PasswordResetRequest		true	"Email пользователя"
// @Success		200		{object}	response.SuccessResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации данных (VALIDATION_ERROR)"
// @Router			/users/password-reset-request [post]
func RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	// Ответ не раскрывает, существует ли пользователь.
	neutral := response.SuccessResponse{Message: "If the email exists, a reset link will be sent."}

	var user models.User
	if err := storage.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusOK, neutral)
		return
	}

	token, err := auth.GenerateResetToken(user.ID)
	if err != nil {
		c.JSON(http.StatusOK, neutral)
		return
	}

	resetLink := baseURL() + "/users/password-reset?token=" + token
	mailer.SendAsync(user.Email, "Password Reset",
		"Click the link to reset your password: "+resetLink)

	c.JSON(http.StatusOK, neutral)
}

// @Summary		Сброс пароля
// @Description	Устанавливает новый пароль по токену сброса
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			data	body		PasswordResetConfirm		true	"Токен и новый пароль"
// @Success		200		{object}	response.SuccessResponse
// @Failure		400		{object}	response.ErrorResponse	"Неверный или просроченный токен (INVALID_RESET_TOKEN)"
// @Failure		404		{object}	response.ErrorResponse	"Пользователь не найден (USER_NOT_FOUND)"
// @Router			/users/password-reset [post]
func ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	userID, err := auth.ParseResetToken(req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RESET_TOKEN",
			Message: "Неверный или просроченный токен",
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

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Ошибка при хешировании пароля",
		})
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := storage.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при сохранении пароля",
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Пароль успешно изменён"})
}

type OAuth2TokenRequest struct {
	Provider     string    `json:"provider" binding:"required"`
	RefreshToken string    `json:"refresh_token" binding:"required"`
	AccessToken  string    `json:"access_token" binding:"required"`
	TokenExpiry  time.Time `json:"token_expiry" binding:"required"`
}

// @Summary		Сохранение OAuth2 токенов
// @Description	Сохраняет токены внешнего календарного провайдера пользователя
// @Tags			users
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			data	body		OAuth2TokenRequest	true	"Токены провайдера"
// @Success		200		{object}	response.SuccessResponse
// @Failure		400		{object}	response.ErrorResponse	"Ошибка валидации данных (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/users/oauth2-token [patch]
func StoreOAuth2Token(c *gin.Context) {
	var req OAuth2TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	userID := c.GetUint("userID")
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "Пользователь не найден",
		})
		return
	}

	user.Provider = req.Provider
	user.RefreshToken = req.RefreshToken
	user.AccessToken = req.AccessToken
	user.TokenExpiry = &req.TokenExpiry

	if err := storage.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при сохранении токенов",
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Токены провайдера обновлены"})
}

func baseURL() string {
	if base := os.Getenv("BASE_URL"); base != "" {
		return base
	}
	return "http://localhost:8080"
}
