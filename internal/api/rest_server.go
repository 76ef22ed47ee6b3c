// Package api поднимает REST-сервер визуализатора: снимок города,
// пикинг, управление камерой, закрепления и администрирование.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/codecity/internal/auth"
	"github.com/annel0/codecity/internal/camera"
	"github.com/annel0/codecity/internal/middleware"
	"github.com/annel0/codecity/internal/scantree"
	"github.com/annel0/codecity/internal/sim"
	"github.com/annel0/codecity/internal/storage"
)

// RestServer обслуживает HTTP API поверх движка симуляции
type RestServer struct {
	router   *gin.Engine
	engine   *sim.Engine
	userRepo auth.UserRepository
	pins     storage.PinsRepo
	port     string
	status   *ServerStatus
}

// Config содержит зависимости REST сервера
type Config struct {
	Port     string // например, ":8088"
	Engine   *sim.Engine
	UserRepo auth.UserRepository
	Pins     storage.PinsRepo
}

// NewRestServer создаёт REST сервер с observability-middleware
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("city_api"))

	promMw := middleware.NewPrometheusMiddleware("city_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:   router,
		engine:   config.Engine,
		userRepo: config.UserRepo,
		pins:     config.Pins,
		port:     config.Port,
		status:   NewServerStatus(),
	}

	server.setupRoutes()
	return server
}

// Router отдаёт роутер для встраивания (тесты, websocket-апгрейд)
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

// Run запускает сервер и блокируется до его завершения
func (rs *RestServer) Run() error {
	return rs.router.Run(rs.port)
}

func (rs *RestServer) setupRoutes() {
	// CORS для браузерных клиентов
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", rs.handleLogin)
	}

	// Просмотр города открыт без токена
	city := api.Group("/city")
	{
		city.GET("", rs.handleCityInfo)
		city.GET("/blocks", rs.handleBlocks)
		city.GET("/blocks/:id", rs.handleBlockByID)
		city.GET("/resolve", rs.handleResolve)
		city.GET("/beacons", rs.handleBeacons)
		city.GET("/terrain", rs.handleTerrain)
	}

	api.POST("/pick", rs.handlePick)

	cam := api.Group("/camera")
	{
		cam.GET("", rs.handleCameraFrame)
		cam.POST("/input", rs.handleCameraInput)
		cam.POST("/mode", rs.handleCameraMode)
		cam.POST("/grapple", rs.handleGrapple)
		cam.POST("/board", rs.handleBoard)
		cam.POST("/eject", rs.handleEject)
	}

	// Закрепления и администрирование требуют токена
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.GET("/pins", rs.handleListPins)
		protected.POST("/pins", rs.handleAddPin)
		protected.DELETE("/pins", rs.handleDeletePin)
		protected.GET("/status", rs.handleStatus)

		admin := protected.Group("/admin")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/rescan", rs.handleRescan)
			admin.POST("/register", rs.handleAdminRegister)
		}
	}

	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

//================ Город =================//

func (rs *RestServer) handleCityInfo(c *gin.Context) {
	snap := rs.engine.Snapshot()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Снимок города",
		Data: map[string]interface{}{
			"generation": snap.Generation,
			"scan_time":  snap.ScanTime,
			"blocks":     len(snap.Blocks),
			"beacons":    len(snap.Beacons),
			"movers":     len(snap.Movers),
		},
	})
}

func (rs *RestServer) handleBlocks(c *gin.Context) {
	snap := rs.engine.Snapshot()

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 5000 {
		limit = 500
	}

	blocks := snap.Blocks
	if offset >= len(blocks) {
		blocks = nil
	} else {
		end := offset + limit
		if end > len(blocks) {
			end = len(blocks)
		}
		blocks = blocks[offset:end]
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Строения города",
		Data: map[string]interface{}{
			"generation": snap.Generation,
			"offset":     offset,
			"total":      len(snap.Blocks),
			"blocks":     blocks,
		},
	})
}

func (rs *RestServer) handleBlockByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный ID строения",
		})
		return
	}

	block, ok := rs.engine.Snapshot().BlockByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Строение не найдено",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Строение",
		Data:    block,
	})
}

func (rs *RestServer) handleResolve(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Параметр path обязателен",
		})
		return
	}

	block, ok := rs.engine.Snapshot().BlockByID(scantree.PathID(path))
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Путь не отображён в городе",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Строение по пути",
		Data:    block,
	})
}

func (rs *RestServer) handleBeacons(c *gin.Context) {
	snap := rs.engine.Snapshot()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Маркеры git-статуса",
		Data:    snap.Beacons,
	})
}

func (rs *RestServer) handleTerrain(c *gin.Context) {
	snap := rs.engine.Snapshot()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Плитки ландшафта",
		Data:    snap.Terrain,
	})
}

//================ Пикинг =================//

// PickRequest — запрос пикинга: экранная точка или центр экрана
type PickRequest struct {
	Center  bool    `json:"center"`
	PX      float64 `json:"px"`
	PY      float64 `json:"py"`
	ScreenW float64 `json:"screen_w"`
	ScreenH float64 `json:"screen_h"`
}

func (rs *RestServer) handlePick(c *gin.Context) {
	var req PickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	var res *sim.PickResult
	if req.Center {
		res = rs.engine.PickCenter(c.Request.Context())
	} else {
		if req.ScreenW <= 0 || req.ScreenH <= 0 {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "screen_w и screen_h должны быть положительными",
			})
			return
		}
		res = rs.engine.PickScreen(c.Request.Context(), req.PX, req.PY, req.ScreenW, req.ScreenH)
	}

	if res == nil {
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: "Промах",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Попадание",
		Data:    res,
	})
}

//================ Камера =================//

func (rs *RestServer) handleCameraFrame(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Кадр камеры",
		Data:    rs.engine.Frame(),
	})
}

// InputRequest — инъекция ввода в камеру
type InputRequest struct {
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

func (rs *RestServer) handleCameraInput(c *gin.Context) {
	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	rs.engine.WithCamera(func(s *camera.State) {
		if req.Action != "" {
			s.SetAction(camera.Action(req.Action), req.Down)
		}
		if req.MouseDX != 0 || req.MouseDY != 0 {
			s.AddMouseDelta(req.MouseDX, req.MouseDY)
		}
		if req.Scroll != 0 {
			s.AddScroll(req.Scroll)
		}
		if req.PanDX != 0 || req.PanDY != 0 {
			s.AddPan(req.PanDX, req.PanDY)
		}
		if req.Pitch != 0 || req.Roll != 0 {
			s.SetPilotAxes(req.Pitch, req.Roll)
		}
	})

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Ввод принят"})
}

func (rs *RestServer) handleCameraMode(c *gin.Context) {
	rs.engine.ToggleMode(c.Request.Context())
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Режим переключён"})
}

// GrappleRequest — запуск грэппла по пикингу из центра экрана
type GrappleRequest struct {
	MoverIndex int `json:"mover_index"` // -1 = пикинг по строению
}

func (rs *RestServer) handleGrapple(c *gin.Context) {
	var req GrappleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.MoverIndex = -1
	}

	if req.MoverIndex >= 0 {
		// Прилипание к подвижному объекту
		rs.engine.WithCamera(func(s *camera.State) {
			s.BeginGrapple(s.Pos, 0, req.MoverIndex)
		})
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Грэппл к объекту запущен"})
		return
	}

	hit := rs.engine.GrappleAtCenter(c.Request.Context())
	if hit == nil {
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Промах"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Грэппл запущен",
		Data:    hit,
	})
}

// BoardRequest — посадка в воздушный объект
type BoardRequest struct {
	MoverIndex int `json:"mover_index" binding:"required"`
}

func (rs *RestServer) handleBoard(c *gin.Context) {
	var req BoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if !rs.engine.Board(c.Request.Context(), req.MoverIndex) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Посадка невозможна",
		})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Пилотирование начато"})
}

func (rs *RestServer) handleEject(c *gin.Context) {
	rs.engine.WithCamera(func(s *camera.State) {
		s.ExitPilot()
	})
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Пилотирование завершено"})
}

//================ Закрепления =================//

func (rs *RestServer) handleListPins(c *gin.Context) {
	pins, err := rs.pins.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка чтения закреплений",
		})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Закрепления",
		Data:    pins,
	})
}

// PinRequest — добавление или удаление закрепления
type PinRequest struct {
	Path  string `json:"path" binding:"required"`
	Label string `json:"label"`
}

func (rs *RestServer) handleAddPin(c *gin.Context) {
	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if err := rs.engine.Pin(c.Request.Context(), req.Path, req.Label); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка закрепления: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "Закреплено"})
}

func (rs *RestServer) handleDeletePin(c *gin.Context) {
	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	if err := rs.engine.Unpin(c.Request.Context(), req.Path); err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Ошибка открепления: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Откреплено"})
}

//================ Администрирование =================//

func (rs *RestServer) handleRescan(c *gin.Context) {
	useCache := c.DefaultQuery("cache", "false") == "true"
	if err := rs.engine.Rebuild(c.Request.Context(), useCache); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Рескан не удался: " + err.Error(),
		})
		return
	}
	snap := rs.engine.Snapshot()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Город пересобран",
		Data: map[string]interface{}{
			"generation": snap.Generation,
			"blocks":     len(snap.Blocks),
		},
	})
}

//================ Здоровье и статус =================//

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"generation": rs.engine.Snapshot().Generation,
	})
}

func (rs *RestServer) handleStatus(c *gin.Context) {
	memoryMB, _ := rs.status.MemoryUsageMB()
	cpuPercent, _ := rs.status.ProcessCPUPercent()

	snap := rs.engine.Snapshot()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статус сервера",
		Data: map[string]interface{}{
			"uptime":      rs.status.Uptime(),
			"memory_mb":   memoryMB,
			"cpu_percent": cpuPercent,
			"memory":      rs.status.DetailedMemoryStats(),
			"city": map[string]interface{}{
				"generation": snap.Generation,
				"blocks":     len(snap.Blocks),
				"scan_time":  snap.ScanTime,
			},
		},
	})
}
