package scantree

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/annel0/codecity/internal/geom"
)

// Kind определяет тип узла файлового дерева
type Kind uint8

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

// Node представляет узел отсканированного дерева.
// Дерево неизменяемо после сканирования: ядро его только читает.
type Node struct {
	ID       uint64    // стабильный идентификатор (хеш нормализованного пути)
	Path     string    // абсолютный путь
	Name     string    // отображаемое имя
	Kind     Kind      // файл/каталог/симлинк
	Size     int64     // размер файла в байтах (0 для каталогов)
	TotalSize int64    // агрегированный размер поддерева
	ModTime  time.Time // время модификации
	Hidden   bool      // скрытый по соглашению ОС (точка в начале имени)
	GitRepo  bool      // корень git-репозитория
	GitClean bool      // репозиторий без незакоммиченных изменений
	Children []*Node   // отсортированы по имени — детерминированный порядок
}

// PathID возвращает стабильный идентификатор для произвольного пути.
// Нормализация гарантирует одинаковый ID между пересканированиями.
func PathID(path string) uint64 {
	clean := filepath.ToSlash(filepath.Clean(path))
	clean = strings.TrimSuffix(clean, "/")
	return geom.HashString(clean)
}

// Ext возвращает расширение файла в нижнем регистре без точки
func (n *Node) Ext() string {
	if n.Kind != KindFile {
		return ""
	}
	ext := strings.TrimPrefix(filepath.Ext(n.Name), ".")
	return strings.ToLower(ext)
}

// CountNodes возвращает общее число узлов поддерева
func (n *Node) CountNodes() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.CountNodes()
	}
	return total
}
