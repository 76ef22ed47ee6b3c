// Package stream отдаёт клиентам кадры камеры по WebSocket и
// принимает от них ввод. Один сеанс — одно соединение; кадры
// шлются с частотой тиков, ввод применяется немедленно.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/annel0/codecity/internal/camera"
	"github.com/annel0/codecity/internal/logging"
	"github.com/annel0/codecity/internal/sim"
)

// InputMessage — входящее сообщение клиента
type InputMessage struct {
	Action  string  `json:"action"`
	Down    bool    `json:"down"`
	MouseDX float64 `json:"mouse_dx"`
	MouseDY float64 `json:"mouse_dy"`
	Scroll  float64 `json:"scroll"`
	PanDX   float64 `json:"pan_dx"`
	PanDY   float64 `json:"pan_dy"`
	Pitch   float64 `json:"pitch_axis"`
	Roll    float64 `json:"roll_axis"`
}

// Streamer управляет WebSocket-сеансами
type Streamer struct {
	engine   *sim.Engine
	log      *logging.Logger
	interval time.Duration
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id   string
	conn *websocket.Conn
	quit chan struct{}
}

// NewStreamer создаёт стример с частотой кадров tickRate
func NewStreamer(engine *sim.Engine, tickRate int) *Streamer {
	if tickRate <= 0 {
		tickRate = 30
	}
	return &Streamer{
		engine:   engine,
		log:      logging.GetStreamLogger(),
		interval: time.Second / time.Duration(tickRate),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Клиенты приходят с любых origin: сервер локальный
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// Register добавляет маршрут /ws/frames в роутер
func (s *Streamer) Register(router *gin.Engine) {
	router.GET("/ws/frames", func(c *gin.Context) {
		s.handle(c.Writer, c.Request)
	})
}

func (s *Streamer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade не удался: %v", err)
		return
	}

	sess := &session{
		id:   uuid.New().String(),
		conn: conn,
		quit: make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.log.Info("🔌 Сеанс %s подключен (всего: %d)", sess.id, count)

	go s.writeLoop(sess)
	go s.readLoop(sess)
}

// writeLoop шлёт кадры с частотой тиков до закрытия сеанса
func (s *Streamer) writeLoop(sess *session) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.quit:
			return
		case <-ticker.C:
			frame := s.engine.Frame()
			sess.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := sess.conn.WriteJSON(frame); err != nil {
				s.drop(sess, err)
				return
			}
		}
	}
}

// readLoop принимает ввод клиента и применяет его к камере
func (s *Streamer) readLoop(sess *session) {
	defer s.drop(sess, nil)

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg InputMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug("Сеанс %s: неразборчивый ввод: %v", sess.id, err)
			continue
		}

		s.engine.WithCamera(func(st *camera.State) {
			if msg.Action != "" {
				st.SetAction(camera.Action(msg.Action), msg.Down)
			}
			if msg.MouseDX != 0 || msg.MouseDY != 0 {
				st.AddMouseDelta(msg.MouseDX, msg.MouseDY)
			}
			if msg.Scroll != 0 {
				st.AddScroll(msg.Scroll)
			}
			if msg.PanDX != 0 || msg.PanDY != 0 {
				st.AddPan(msg.PanDX, msg.PanDY)
			}
			if msg.Pitch != 0 || msg.Roll != 0 {
				st.SetPilotAxes(msg.Pitch, msg.Roll)
			}
		})
	}
}

// drop закрывает сеанс; err != nil означает обрыв записи
func (s *Streamer) drop(sess *session, err error) {
	s.mu.Lock()
	if _, ok := s.sessions[sess.id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, sess.id)
	count := len(s.sessions)
	s.mu.Unlock()

	close(sess.quit)
	_ = sess.conn.Close()

	if err != nil {
		s.log.Info("Сеанс %s отключен с ошибкой: %v (осталось: %d)", sess.id, err, count)
	} else {
		s.log.Info("Сеанс %s отключен (осталось: %d)", sess.id, count)
	}
}

// Count возвращает число активных сеансов
func (s *Streamer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
