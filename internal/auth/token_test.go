package auth

import (
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// Ключ задаётся уже после инициализации пакета — как это делает godotenv.Load
// в main. Подпись и проверка обязаны видеть актуальное значение.
func TestSecretReadAfterInit(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-one")
	defer os.Unsetenv("JWT_SECRET")

	tokenString, err := GenerateAccessToken(42)
	assert.NoError(t, err)

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret-one"), nil
	})
	assert.NoError(t, err)
	assert.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, float64(42), claims["user_id"])

	// Смена ключа в окружении делает старый токен невалидным.
	os.Setenv("JWT_SECRET", "test-secret-two")
	_, err = ParseResetToken(tokenString)
	assert.Error(t, err)
}

func TestResetTokenRoundTrip(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-reset")
	defer os.Unsetenv("JWT_SECRET")

	tokenString, err := GenerateResetToken(7)
	assert.NoError(t, err)

	userID, err := ParseResetToken(tokenString)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), userID)

	// Access токен не подходит для сброса пароля: нет claim type=reset.
	accessToken, err := GenerateAccessToken(7)
	assert.NoError(t, err)
	_, err = ParseResetToken(accessToken)
	assert.Error(t, err)
}
