package scantree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeFixture раскладывает тестовое дерево во временном каталоге
func makeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	mustWrite := func(rel string, size int) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	}

	mustWrite("main.go", 1000)
	mustWrite("README.md", 500)
	mustWrite(".hidden", 10)
	mustWrite("src/parser.go", 2000)
	mustWrite("src/lexer.go", 1500)
	mustWrite("src/deep/inner.go", 300)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "repo", ".git"), 0o755))
	mustWrite("repo/code.go", 700)
	return root
}

// TestScanBasic проверяет структуру снимка
func TestScanBasic(t *testing.T) {
	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 3, MaxNodes: 100})

	node, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, node)

	assert.Equal(t, KindDir, node.Kind)
	assert.Equal(t, PathID(node.Path), node.ID)

	names := make(map[string]*Node)
	for _, c := range node.Children {
		names[c.Name] = c
	}
	assert.Contains(t, names, "main.go")
	assert.Contains(t, names, "src")
	assert.NotContains(t, names, ".hidden", "Скрытые файлы исключаются по умолчанию")
	assert.Equal(t, int64(1000), names["main.go"].Size)
}

// TestScanChildOrderDeterministic проверяет сортировку детей по имени
func TestScanChildOrderDeterministic(t *testing.T) {
	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 3, MaxNodes: 100})

	a, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	b, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	require.Equal(t, len(a.Children), len(b.Children))
	for i := range a.Children {
		assert.Equal(t, a.Children[i].Name, b.Children[i].Name)
		assert.Equal(t, a.Children[i].ID, b.Children[i].ID)
	}
	for i := 1; i < len(a.Children); i++ {
		assert.Less(t, a.Children[i-1].Name, a.Children[i].Name, "Дети не отсортированы")
	}
}

// TestScanIncludeHidden проверяет флаг скрытых файлов
func TestScanIncludeHidden(t *testing.T) {
	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 1, MaxNodes: 100, IncludeHidden: true})

	node, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	found := false
	for _, c := range node.Children {
		if c.Name == ".hidden" {
			found = true
		}
	}
	assert.True(t, found, "IncludeHidden должен возвращать скрытые файлы")
}

// TestScanDepthLimit проверяет ограничение глубины
func TestScanDepthLimit(t *testing.T) {
	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 1, MaxNodes: 100})

	node, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	for _, c := range node.Children {
		assert.Empty(t, c.Children, "Глубина 1 означает только прямых детей корня")
	}
}

// TestScanNodeBudget проверяет жёсткий предел числа узлов
func TestScanNodeBudget(t *testing.T) {
	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 3, MaxNodes: 4})

	node, err := s.Scan(context.Background(), root)
	require.NoError(t, err)
	assert.LessOrEqual(t, node.CountNodes(), 4, "Бюджет узлов превышен")
}

// TestScanGitDetection проверяет детекцию git-репозитория:
// каталог .git помечает родителя и не попадает в детей.
func TestScanGitDetection(t *testing.T) {
	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 3, MaxNodes: 100, IncludeHidden: true})

	node, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var repo *Node
	for _, c := range node.Children {
		if c.Name == "repo" {
			repo = c
		}
	}
	require.NotNil(t, repo)
	assert.True(t, repo.GitRepo, "Каталог с .git должен быть помечен репозиторием")
	for _, c := range repo.Children {
		assert.NotEqual(t, ".git", c.Name, ".git не должен быть узлом дерева")
	}
}

// TestScanAggregatesTotalSize проверяет агрегацию размеров снизу вверх
func TestScanAggregatesTotalSize(t *testing.T) {
	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 3, MaxNodes: 100})

	node, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	var src *Node
	for _, c := range node.Children {
		if c.Name == "src" {
			src = c
		}
	}
	require.NotNil(t, src)
	assert.Equal(t, int64(2000+1500+300), src.TotalSize)
	assert.GreaterOrEqual(t, node.TotalSize, src.TotalSize)
}

// TestScanErrors проверяет ошибки недоступного корня
func TestScanErrors(t *testing.T) {
	s := NewScanner(DefaultOptions())

	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "нет-такого"))
	assert.Error(t, err, "Несуществующий корень должен давать ошибку")

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = s.Scan(context.Background(), file)
	assert.Error(t, err, "Файл вместо каталога должен давать ошибку")
}

// TestPathIDNormalization проверяет стабильность идентификаторов путей
func TestPathIDNormalization(t *testing.T) {
	assert.Equal(t, PathID("/a/b/c"), PathID("/a/b/c/"), "Хвостовой слеш должен игнорироваться")
	assert.Equal(t, PathID("/a/b/c"), PathID("/a/b/./c"), "Путь должен нормализоваться")
	assert.NotEqual(t, PathID("/a/b"), PathID("/a/c"))
}

// TestNodeExt проверяет извлечение расширения
func TestNodeExt(t *testing.T) {
	f := &Node{Name: "Main.GO", Kind: KindFile}
	assert.Equal(t, "go", f.Ext())

	noExt := &Node{Name: "Makefile", Kind: KindFile}
	assert.Equal(t, "", noExt.Ext())

	dir := &Node{Name: "src.d", Kind: KindDir}
	assert.Equal(t, "", dir.Ext(), "Каталоги не имеют расширения")
}

// TestSnapshotStore проверяет кеш снимков в BadgerDB
func TestSnapshotStore(t *testing.T) {
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	root := makeFixture(t)
	s := NewScanner(Options{MaxDepth: 2, MaxNodes: 100})
	node, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	scanTime := node.ModTime
	require.NoError(t, store.Save(node, scanTime))

	loaded, found, err := store.Load(node.Path, 0)
	require.NoError(t, err)
	require.True(t, found, "Сохранённый снимок не найден")
	assert.Equal(t, node.ID, loaded.ID)
	assert.Equal(t, node.CountNodes(), loaded.CountNodes())

	_, found, err = store.Load("/другой/корень", 0)
	require.NoError(t, err)
	assert.False(t, found, "Чужой корень не должен находить снимок")

	require.NoError(t, store.Delete(node.Path))
	_, found, err = store.Load(node.Path, 0)
	require.NoError(t, err)
	assert.False(t, found, "Удалённый снимок не должен находиться")
}
