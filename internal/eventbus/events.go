package eventbus

// Доменные полезные нагрузки. Каждая сериализуется в Envelope.Payload.

// CityRebuiltEvent публикуется после атомарной подмены снимка города
type CityRebuiltEvent struct {
	Root       string `json:"root"`       // корневой каталог сканирования
	Generation uint64 `json:"generation"` // номер снимка
	Blocks     int    `json:"blocks"`
	Beacons    int    `json:"beacons"`
	DurationMs int64  `json:"duration_ms"`
}

// BlockPickedEvent публикуется при попадании луча в строение или маркер
type BlockPickedEvent struct {
	BlockID  uint64  `json:"block_id"`
	Path     string  `json:"path"`
	Distance float64 `json:"distance"`
	Beacon   bool    `json:"beacon"`
}

// CameraModeEvent публикуется при смене режима камеры
type CameraModeEvent struct {
	Mode     string `json:"mode"`     // orbit | first_person
	Piloting bool   `json:"piloting"`
	Flying   bool   `json:"flying"`
}

// PinEvent публикуется при закреплении или откреплении строения
type PinEvent struct {
	Path    string `json:"path"`
	BlockID uint64 `json:"block_id"`
}

// ScanFailedEvent публикуется, если рескан не смог прочитать корень
type ScanFailedEvent struct {
	Root  string `json:"root"`
	Error string `json:"error"`
}

// MoverBoardedEvent публикуется при посадке в воздушный объект
type MoverBoardedEvent struct {
	MoverIndex int `json:"mover_index"`
}
