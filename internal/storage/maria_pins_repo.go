package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/annel0/codecity/internal/scantree"
)

// MariaPinsRepo реализует PinsRepo для базы данных MariaDB/MySQL.
// Использует таблицу city_pins.
type MariaPinsRepo struct {
	db *sql.DB
}

// NewMariaPinsRepo подключается к MariaDB и создаёт таблицу при необходимости.
// dsn: user:pass@tcp(host:port)/dbname?parseTime=true
func NewMariaPinsRepo(dsn string) (*MariaPinsRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaPinsRepo{db: db}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return repo, nil
}

func (r *MariaPinsRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS city_pins (
			path       VARCHAR(1024) NOT NULL,
			path_hash  BIGINT UNSIGNED NOT NULL,
			label      VARCHAR(255)  NOT NULL DEFAULT '',
			created_at TIMESTAMP     DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (path_hash),
			INDEX idx_created_at (created_at)
		) ENGINE=InnoDB
	`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы city_pins: %w", err)
	}
	return nil
}

// Save сохраняет закрепление, перезаписывая существующее
func (r *MariaPinsRepo) Save(ctx context.Context, pin Pin) error {
	if pin.Path == "" {
		return fmt.Errorf("недействительный путь закрепления: пустая строка")
	}
	if pin.BlockID == 0 {
		pin.BlockID = scantree.PathID(pin.Path)
	}
	if pin.CreatedAt.IsZero() {
		pin.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO city_pins (path, path_hash, label, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			path  = VALUES(path),
			label = VALUES(label)
	`

	_, err := r.db.ExecContext(ctx, query, pin.Path, pin.BlockID, pin.Label, pin.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения закрепления %s: %w", pin.Path, err)
	}
	return nil
}

// Load загружает закрепление по пути
func (r *MariaPinsRepo) Load(ctx context.Context, path string) (Pin, bool, error) {
	if path == "" {
		return Pin{}, false, fmt.Errorf("недействительный путь закрепления: пустая строка")
	}

	query := `SELECT path, path_hash, label, created_at FROM city_pins WHERE path_hash = ?`

	var pin Pin
	err := r.db.QueryRowContext(ctx, query, scantree.PathID(path)).
		Scan(&pin.Path, &pin.BlockID, &pin.Label, &pin.CreatedAt)
	if err == sql.ErrNoRows {
		return Pin{}, false, nil
	}
	if err != nil {
		return Pin{}, false, fmt.Errorf("ошибка загрузки закрепления %s: %w", path, err)
	}
	return pin, true, nil
}

// Delete удаляет закрепление
func (r *MariaPinsRepo) Delete(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("недействительный путь закрепления: пустая строка")
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM city_pins WHERE path_hash = ?`, scantree.PathID(path))
	if err != nil {
		return fmt.Errorf("ошибка удаления закрепления %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("закрепление для пути %s не найдено", path)
	}
	return nil
}

// List возвращает все закрепления в порядке путей
func (r *MariaPinsRepo) List(ctx context.Context) ([]Pin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path, path_hash, label, created_at FROM city_pins ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения закреплений: %w", err)
	}
	defer rows.Close()

	var pins []Pin
	for rows.Next() {
		var pin Pin
		if err := rows.Scan(&pin.Path, &pin.BlockID, &pin.Label, &pin.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки закрепления: %w", err)
		}
		pins = append(pins, pin)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обхода закреплений: %w", err)
	}
	return pins, nil
}

// Close закрывает соединение с базой данных
func (r *MariaPinsRepo) Close() error {
	return r.db.Close()
}
