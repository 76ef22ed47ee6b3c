package auth

import "errors"

// UserRepository определяет операции над учётными записями.
// Реализации: память (по умолчанию) и MariaDB.
type UserRepository interface {
	// GetUserByUsername возвращает пользователя по имени
	// (регистронезависимо). Если не найден — (nil, ErrUserNotFound).
	GetUserByUsername(username string) (*User, error)

	// GetUserByID возвращает пользователя по идентификатору
	GetUserByID(id uint64) (*User, error)

	// CreateUser создаёт пользователя. Пароль передаётся уже
	// захешированным bcrypt. При конфликте имён — ErrUserExists.
	CreateUser(username string, passwordHash string, isAdmin bool) (*User, error)

	// ValidateCredentials проверяет имя и пароль, возвращает
	// пользователя при успехе
	ValidateCredentials(username, password string) (*User, error)
}

// Доменные ошибки репозитория
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)
