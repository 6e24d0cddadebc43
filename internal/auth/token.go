package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// secret читается при каждом обращении: godotenv.Load в main выполняется
// после инициализации пакетов, и ключ из .env иначе был бы пустым.
func secret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

const (
	// AccessTokenTTL — срок жизни access токена.
	AccessTokenTTL = 60 * time.Minute
	// ResetTokenTTL — срок жизни токена сброса пароля.
	ResetTokenTTL = 15 * time.Minute
)

// GenerateAccessToken выпускает access токен с идентификатором пользователя.
func GenerateAccessToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(AccessTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// GenerateResetToken выпускает короткоживущий токен сброса пароля. Отдельный
// claim "type" не даёт использовать его вместо access токена.
func GenerateResetToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"type":    "reset",
		"exp":     time.Now().Add(ResetTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// ParseResetToken проверяет токен сброса пароля и возвращает ID пользователя.
func ParseResetToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secret(), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("неверный или просроченный токен")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("невозможно прочитать claims токена")
	}
	if t, _ := claims["type"].(string); t != "reset" {
		return 0, errors.New("токен не является токеном сброса пароля")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("невозможно извлечь user_id")
	}
	return uint(userID), nil
}
