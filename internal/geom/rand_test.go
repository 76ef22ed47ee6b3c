package geom

import (
	"testing"
)

// TestHashStringStability проверяет стабильность хеша строк
func TestHashStringStability(t *testing.T) {
	h1 := HashString("/home/user/project")
	h2 := HashString("/home/user/project")
	if h1 != h2 {
		t.Fatalf("Хеш одной строки различается: %d != %d", h1, h2)
	}

	if HashString("/home/user/a") == HashString("/home/user/b") {
		t.Error("Разные строки дали одинаковый хеш")
	}
	if HashString("") == HashString("x") {
		t.Error("Пустая строка совпала с непустой")
	}
}

// TestRandDeterminism проверяет воспроизводимость генератора
func TestRandDeterminism(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 100; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("Генераторы с одним сидом разошлись на шаге %d", i)
		}
	}

	c := NewRand(43)
	same := 0
	d := NewRand(42)
	for i := 0; i < 100; i++ {
		if c.Next() == d.Next() {
			same++
		}
	}
	if same > 2 {
		t.Errorf("Разные сиды дали %d совпадений из 100", same)
	}
}

// TestRandFloat64Range проверяет диапазон Float64
func TestRandFloat64Range(t *testing.T) {
	r := NewRand(7)
	for i := 0; i < 1000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64 вне [0,1): %f", v)
		}
	}
}

// TestRandIntN проверяет границы IntN
func TestRandIntN(t *testing.T) {
	r := NewRand(1)
	for i := 0; i < 1000; i++ {
		v := r.IntN(10)
		if v < 0 || v >= 10 {
			t.Fatalf("IntN(10) вне диапазона: %d", v)
		}
	}
	if r.IntN(0) != 0 {
		t.Error("IntN(0) должен возвращать 0")
	}
	if r.IntN(-5) != 0 {
		t.Error("IntN отрицательного должен возвращать 0")
	}
}

// TestBucket проверяет сведение хеша к корзине
func TestBucket(t *testing.T) {
	if Bucket(12345, 0) != 0 {
		t.Error("Bucket с n=0 должен возвращать 0")
	}
	for i := uint64(0); i < 100; i++ {
		b := Bucket(mix64(i), 8)
		if b < 0 || b >= 8 {
			t.Fatalf("Корзина вне [0,8): %d", b)
		}
	}
}

// TestHash2 проверяет, что координатный хеш различает оси
func TestHash2(t *testing.T) {
	if Hash2(1, 2, 3) == Hash2(1, 3, 2) {
		t.Error("Hash2 симметричен по осям, коллизии неизбежны")
	}
	if Hash2(1, 2, 3) != Hash2(1, 2, 3) {
		t.Error("Hash2 нестабилен")
	}
	if Hash2(1, 2, 3) == Hash2(2, 2, 3) {
		t.Error("Hash2 игнорирует сид")
	}
}
