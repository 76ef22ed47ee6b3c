package scantree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Options ограничивает обход файлового дерева
type Options struct {
	MaxDepth      int  // максимальная глубина (1 = только прямые дети корня)
	MaxNodes      int  // жёсткий предел числа узлов
	IncludeHidden bool // включать ли скрытые файлы
}

// DefaultOptions возвращает разумные ограничения обхода
func DefaultOptions() Options {
	return Options{
		MaxDepth:      2,
		MaxNodes:      4096,
		IncludeHidden: false,
	}
}

// Scanner обходит каталоги и собирает неизменяемые снимки дерева.
// Обход выполняется вне симуляционной горутины; готовый снимок
// передаётся целиком, частичных результатов не бывает.
type Scanner struct {
	opts Options
}

// NewScanner создаёт сканер с указанными ограничениями
func NewScanner(opts Options) *Scanner {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 1
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = 1
	}
	return &Scanner{opts: opts}
}

// Scan строит снимок дерева начиная с root.
// Возвращает ошибку только если сам корень недоступен: проблемные
// подкаталоги молча пропускаются, чтобы один битый узел не ронял скан.
func (s *Scanner) Scan(ctx context.Context, root string) (*Node, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("не удалось разрешить путь %q: %w", root, err)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть корень сканирования: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("корень сканирования %q не является каталогом", abs)
	}

	budget := s.opts.MaxNodes
	node := s.walk(ctx, abs, info, 0, &budget)
	if node == nil {
		return nil, fmt.Errorf("лимит узлов исчерпан до обработки корня")
	}
	aggregate(node)
	return node, nil
}

// walk рекурсивно собирает узел; budget расходуется на каждый созданный узел
func (s *Scanner) walk(ctx context.Context, path string, info os.FileInfo, depth int, budget *int) *Node {
	if *budget <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return nil
	default:
	}

	*budget--
	node := &Node{
		ID:      PathID(path),
		Path:    path,
		Name:    filepath.Base(path),
		ModTime: info.ModTime(),
		Hidden:  isHidden(filepath.Base(path)),
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		// Симлинки фиксируем, но не разыменовываем: защита от циклов
		node.Kind = KindSymlink
		return node
	case info.IsDir():
		node.Kind = KindDir
	default:
		node.Kind = KindFile
		node.Size = info.Size()
		return node
	}

	if depth >= s.opts.MaxDepth {
		return node
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return node // недоступный каталог остаётся пустым узлом
	}

	// Сортировка по имени даёт детерминированный порядок детей
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		name := entry.Name()
		if name == ".git" {
			node.GitRepo = true
			node.GitClean = gitClean(ctx, path)
			continue
		}
		if !s.opts.IncludeHidden && isHidden(name) {
			continue
		}
		childInfo, err := entry.Info()
		if err != nil {
			continue
		}
		child := s.walk(ctx, filepath.Join(path, name), childInfo, depth+1, budget)
		if child == nil {
			break // бюджет узлов исчерпан
		}
		node.Children = append(node.Children, child)
	}
	return node
}

// aggregate вычисляет TotalSize снизу вверх
func aggregate(n *Node) int64 {
	total := n.Size
	for _, c := range n.Children {
		total += aggregate(c)
	}
	n.TotalSize = total
	return total
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
