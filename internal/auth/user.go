// Package auth отвечает за учётные записи и JWT-доступ к API.
// Обычный просмотр города токена не требует; административные
// операции (рескан, управление закреплениями, пользователи) требуют.
package auth

import "time"

// User представляет учётную запись наблюдателя или администратора
type User struct {
	ID           uint64    // неизменяемый идентификатор
	Username     string    // уникальное имя, регистронезависимое
	PasswordHash string    // bcrypt-хеш пароля
	CreatedAt    time.Time // время создания аккаунта
	LastLogin    time.Time // последний успешный вход
	IsAdmin      bool      // административные права
}
