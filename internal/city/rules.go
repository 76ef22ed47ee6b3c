package city

// LayoutRules описывает параметры раскладки города.
// Правила неизменяемы на время одного вызова Map.
type LayoutRules struct {
	RoadWidth    int `yaml:"road_width"`    // ширина дороги между строениями (клетки)
	Padding      int `yaml:"padding"`       // дополнительный отступ вокруг строения
	MinFootprint int `yaml:"min_footprint"` // минимальная сторона подошвы
	MaxFootprint int `yaml:"max_footprint"` // максимальная сторона подошвы
	MaxHeight    int `yaml:"max_height"`    // максимальная высота строения
	MaxNodes     int `yaml:"max_nodes"`     // предел строений на город
	GridSpacing  int `yaml:"grid_spacing"`  // размер клетки сетки в единицах мира
}

// DefaultRules возвращает правила по умолчанию
func DefaultRules() LayoutRules {
	return LayoutRules{
		RoadWidth:    2,
		Padding:      0,
		MinFootprint: 2,
		MaxFootprint: 10,
		MaxHeight:    40,
		MaxNodes:     512,
		GridSpacing:  1,
	}
}

// sanitized защитно зажимает некорректные значения вместо порчи раскладки.
// Нарушение контракта считается ошибкой вызывающего, но в релизе мы
// не паникуем, а приводим правила к рабочим.
func (r LayoutRules) sanitized() LayoutRules {
	if r.MinFootprint < 1 {
		r.MinFootprint = 1
	}
	if r.MaxFootprint < r.MinFootprint {
		r.MaxFootprint = r.MinFootprint
	}
	if r.MaxHeight < 1 {
		r.MaxHeight = 1
	}
	if r.MaxNodes < 0 {
		r.MaxNodes = 0
	}
	if r.RoadWidth < 0 {
		r.RoadWidth = 0
	}
	if r.Padding < 0 {
		r.Padding = 0
	}
	if r.GridSpacing < 1 {
		r.GridSpacing = 1
	}
	return r
}
