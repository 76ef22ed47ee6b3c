package geom

// Детерминированный PRNG и хеши для назначения форм/текстур.
// Встроенный хеш Go нестабилен между запусками, поэтому здесь
// явный splitmix64: одинаковое дерево всегда даёт одинаковый город.

// mix64 финальное перемешивание splitmix64
func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Rand представляет детерминированный генератор псевдослучайных чисел
type Rand struct {
	state uint64
}

// NewRand создаёт генератор с указанным сидом
func NewRand(seed uint64) *Rand {
	return &Rand{state: seed}
}

// Next возвращает следующее 64-битное значение
func (r *Rand) Next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	return mix64(r.state)
}

// Float64 возвращает значение в [0, 1)
func (r *Rand) Float64() float64 {
	return float64(r.Next()>>11) / float64(1<<53)
}

// IntN возвращает значение в [0, n); для n <= 0 возвращает 0
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

// HashString возвращает стабильный хеш строки.
// Не зависит от порядка обхода и запуска процесса.
func HashString(s string) uint64 {
	var h uint64 = 0x9e3779b97f4a7c15
	for i := 0; i < len(s); i++ {
		h = (h ^ uint64(s[i])) * 0xbf58476d1ce4e5b9
	}
	return mix64(h)
}

// Hash2 хеширует пару целочисленных координат с сидом
func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9))
}

// Bucket сводит хеш к корзине [0, n); для n <= 0 возвращает 0
func Bucket(h uint64, n int) int {
	if n <= 0 {
		return 0
	}
	return int(h % uint64(n))
}
