package auth

import (
	"strings"
	"sync"
	"time"
)

// MemoryUserRepo — потокобезопасное хранилище учётных записей в памяти.
// Используется в тестах и при запуске без БД. Идентификаторы выдаются
// инкрементально начиная с 1.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[string]*User // ключ = lowercase(username)
	byID   map[uint64]*User
	nextID uint64
}

// NewMemoryUserRepo создаёт репозиторий с единственным администратором
// (admin/admin). Пароль следует сменить через /api/admin/register.
func NewMemoryUserRepo() (*MemoryUserRepo, error) {
	repo := &MemoryUserRepo{
		users:  make(map[string]*User),
		byID:   make(map[uint64]*User),
		nextID: 1,
	}

	adminHash, err := HashPassword("admin")
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateUser("admin", adminHash, true); err != nil {
		return nil, err
	}

	return repo, nil
}

// GetUserByUsername возвращает пользователя по имени (регистронезависимо)
func (r *MemoryUserRepo) GetUserByUsername(username string) (*User, error) {
	key := normalize(username)
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[key]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetUserByID возвращает пользователя по идентификатору
func (r *MemoryUserRepo) GetUserByID(id uint64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateUser вставляет нового пользователя, если имя свободно
func (r *MemoryUserRepo) CreateUser(username string, passwordHash string, isAdmin bool) (*User, error) {
	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		LastLogin:    time.Now(),
		IsAdmin:      isAdmin,
	}
	r.nextID++
	r.users[key] = user
	r.byID[user.ID] = user
	return user, nil
}

// ValidateCredentials проверяет имя и пароль
func (r *MemoryUserRepo) ValidateCredentials(username, password string) (*User, error) {
	user, err := r.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrUserNotFound
	}

	r.mu.Lock()
	user.LastLogin = time.Now()
	r.mu.Unlock()
	return user, nil
}

func normalize(username string) string {
	return strings.ToLower(username)
}
