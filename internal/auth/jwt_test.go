package auth

import (
	"strings"
	"testing"
	"time"
)

// TestGenerateJWT тестирует создание JWT токена
func TestGenerateJWT(t *testing.T) {
	user := &User{
		ID:           1,
		Username:     "testuser",
		PasswordHash: "hashedpassword",
		IsAdmin:      false,
		CreatedAt:    time.Now(),
		LastLogin:    time.Now(),
	}

	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	if token == "" {
		t.Fatal("Пустой токен")
	}

	// Проверяем, что токен содержит точки (разделители частей JWT)
	if strings.Count(token, ".") != 2 {
		t.Errorf("Неверный формат JWT токена: %s", token)
	}
}

// TestValidateJWT тестирует валидацию JWT токена
func TestValidateJWT(t *testing.T) {
	user := &User{
		ID:           42,
		Username:     "validuser",
		PasswordHash: "hashedpassword",
		IsAdmin:      true,
		CreatedAt:    time.Now(),
		LastLogin:    time.Now(),
	}

	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	userID, isValid, isAdmin := ValidateJWT(token)

	if !isValid {
		t.Error("Валидный токен определен как недействительный")
	}
	if userID != user.ID {
		t.Errorf("Неверный userID: ожидался %d, получен %d", user.ID, userID)
	}
	if isAdmin != user.IsAdmin {
		t.Errorf("Неверный isAdmin: ожидался %v, получен %v", user.IsAdmin, isAdmin)
	}
}

// TestValidateJWTInvalid тестирует отказ по мусорным токенам
func TestValidateJWTInvalid(t *testing.T) {
	cases := []string{
		"",
		"не.токен.вовсе",
		"eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.подделка",
	}
	for _, token := range cases {
		if _, isValid, _ := ValidateJWT(token); isValid {
			t.Errorf("Мусорный токен прошёл валидацию: %q", token)
		}
	}
}

// TestValidateJWTTamperedSignature тестирует отказ по подменённой подписи
func TestValidateJWTTamperedSignature(t *testing.T) {
	user := &User{ID: 7, Username: "user"}
	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("Неверная структура токена: %d частей", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	if _, isValid, _ := ValidateJWT(tampered); isValid {
		t.Error("Токен с подменённой подписью прошёл валидацию")
	}
}

// TestTokenTTLExpiry тестирует истечение срока жизни токена
func TestTokenTTLExpiry(t *testing.T) {
	oldTTL := tokenTTL
	defer SetTokenTTL(oldTTL)

	SetTokenTTL(time.Millisecond)
	user := &User{ID: 1, Username: "shortlived"}
	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, isValid, _ := ValidateJWT(token); isValid {
		t.Error("Просроченный токен прошёл валидацию")
	}
}

// TestSetJWTSecret тестирует установку ключа подписи
func TestSetJWTSecret(t *testing.T) {
	if err := SetJWTSecret("не base64!!!"); err == nil {
		t.Error("Некорректный base64 должен давать ошибку")
	}
	if err := SetJWTSecret("dG9vc2hvcnQ="); err == nil {
		t.Error("Короткий ключ должен давать ошибку")
	}

	secret := GenerateSecureSecret()
	if err := SetJWTSecret(secret); err != nil {
		t.Fatalf("Сгенерированный ключ не принят: %v", err)
	}

	// Токены, подписанные старым ключом, перестают проходить
	user := &User{ID: 1, Username: "rotated"}
	token, err := GenerateJWT(user)
	if err != nil {
		t.Fatalf("Ошибка генерации JWT: %v", err)
	}
	if err := SetJWTSecret(GenerateSecureSecret()); err != nil {
		t.Fatalf("Ротация ключа не удалась: %v", err)
	}
	if _, isValid, _ := ValidateJWT(token); isValid {
		t.Error("Токен со старым ключом прошёл валидацию после ротации")
	}
}

// TestPasswordHashing тестирует bcrypt-хеширование паролей
func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-пароль")
	if err != nil {
		t.Fatalf("Ошибка хеширования: %v", err)
	}
	if hash == "s3cret-пароль" {
		t.Fatal("Пароль сохранён открытым текстом")
	}

	if !CheckPassword(hash, "s3cret-пароль") {
		t.Error("Правильный пароль не прошёл проверку")
	}
	if CheckPassword(hash, "неправильный") {
		t.Error("Неправильный пароль прошёл проверку")
	}
}
