// Package api REST интерфейс сервера: состояние мира, ввод, инвентарь и администрирование.
package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/annel0/frozen-forest/internal/game"
	"github.com/annel0/frozen-forest/internal/input"
	"github.com/annel0/frozen-forest/internal/inventory"
	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/middleware"
	"github.com/annel0/frozen-forest/internal/network"
	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/annel0/frozen-forest/internal/vec"
	"github.com/annel0/frozen-forest/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер
type RestServer struct {
	router *gin.Engine
	runner *game.Runner
	hub    *network.Hub
	stats  *ProcessStats
	server *http.Server
	logger *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr        string               // адрес для запуска сервера
	Runner      *game.Runner         // игровой цикл
	Hub         *network.Hub         // WebSocket хаб, может быть nil
	WSPath      string               // путь WebSocket, по умолчанию /ws
	ServiceName string               // имя сервиса в трейсах и метриках
	Registry    *prometheus.Registry // nil - дефолтный регистр
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SelectSlotRequest запрос выбора слота инвентаря
type SelectSlotRequest struct {
	Slot *int `json:"slot" binding:"required"`
}

// PlayerResponse состояние игрока
type PlayerResponse struct {
	ID             uint64  `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Health         float64 `json:"health"`
	MaxHealth      float64 `json:"max_health"`
	HealthFraction float64 `json:"health_fraction"`
	SelectedSlot   int32   `json:"selected_slot"`
}

// TileResponse тайл с декорациями
type TileResponse struct {
	X           int                `json:"x"`
	Y           int                `json:"y"`
	State       string             `json:"state"`
	Origin      vec.Vec2Float      `json:"origin"`
	Decorations []world.Decoration `json:"decorations,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.WSPath == "" {
		config.WSPath = "/ws"
	}
	if config.ServiceName == "" {
		config.ServiceName = "frozen_forest"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	logger := logging.GetServerLogger()

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger(logger, "/health", "/metrics").Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	rs := &RestServer{
		router: router,
		runner: config.Runner,
		hub:    config.Hub,
		stats:  NewProcessStats(),
		logger: logger,
	}
	rs.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes(config.WSPath)
	return rs
}

// Router возвращает gin.Engine (для тестов и встраивания)
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes(wsPath string) {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)
	if rs.hub != nil {
		rs.router.GET(wsPath, gin.WrapF(rs.hub.HandleConnection))
	}

	api := rs.router.Group("/api")
	{
		api.GET("/stats", rs.handleStats)
		api.GET("/world", rs.handleWorld)
		api.GET("/world/tiles", rs.handleTiles)
		api.GET("/world/tiles/:x/:y", rs.handleTile)
		api.GET("/player", rs.handlePlayer)
		api.GET("/inventory", rs.handleInventory)
		api.POST("/inventory/select", rs.handleSelectSlot)
		api.POST("/input", rs.handleInput)

		admin := api.Group("/admin")
		admin.POST("/save", rs.handleSave)
	}
}

// Start запускает HTTP сервер. Блокирует до Shutdown.
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown корректно останавливает сервер
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	snap := rs.runner.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"frame":  snap.Frame,
		"uptime": rs.stats.Uptime(),
	})
}

// handleStats возвращает статистику игры и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	snap := rs.runner.Snapshot()
	open := snap.OpenTiles()

	data := gin.H{
		"uptime":          rs.stats.Uptime(),
		"frame":           snap.Frame,
		"tiles_open":      open,
		"tiles_closed":    len(snap.Tiles) - open,
		"entities":        len(snap.Entities),
		"health_fraction": snap.HealthFraction,
		"runtime":         rs.stats.RuntimeStats(),
	}
	rs.runner.View(func(g *game.Game) { data["physics"] = g.Physics().Index().Stats() })
	if rs.hub != nil {
		data["ws_clients"] = rs.hub.Clients()
		data["ws_inputs"] = rs.hub.InputsReceived()
	}
	if cpu, err := rs.stats.CPUPercent(); err == nil {
		data["cpu_percent"] = cpu
	}
	if rss, err := rs.stats.RSSMegabytes(); err == nil {
		data["rss_mb"] = rss
	}

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика сервера", Data: data})
}

// handleWorld возвращает последний снимок целиком
func (rs *RestServer) handleWorld(c *gin.Context) {
	c.JSON(http.StatusOK, rs.runner.Snapshot())
}

// handleTiles список тайлов, ?state=open|closed фильтрует
func (rs *RestServer) handleTiles(c *gin.Context) {
	snap := rs.runner.Snapshot()
	state := c.Query("state")
	if state != "" && state != world.TileOpen.String() && state != world.TileClosed.String() {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "state должен быть open или closed"})
		return
	}

	tiles := make([]protocol.TileState, 0, len(snap.Tiles))
	for _, t := range snap.Tiles {
		if state == "" || (state == world.TileOpen.String()) == t.Open {
			tiles = append(tiles, t)
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Тайлы получены",
		Data: gin.H{
			"frame": snap.Frame,
			"total": len(tiles),
			"tiles": tiles,
		},
	})
}

// handleTile возвращает тайл с декорациями
func (rs *RestServer) handleTile(c *gin.Context) {
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверные координаты тайла"})
		return
	}

	var (
		resp TileResponse
		err  error
	)
	rs.runner.View(func(g *game.Game) {
		var t *world.Tile
		t, err = g.World().Tile(vec.Vec2{X: x, Y: y})
		if err != nil {
			return
		}
		resp = TileResponse{
			X:           t.Coord.X,
			Y:           t.Coord.Y,
			State:       t.State.String(),
			Origin:      t.Origin,
			Decorations: append([]world.Decoration(nil), t.Decorations...),
		}
	})

	if errors.Is(err, world.ErrTileNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Тайл найден", Data: resp})
}

// handlePlayer возвращает состояние игрока из последнего снимка
func (rs *RestServer) handlePlayer(c *gin.Context) {
	snap := rs.runner.Snapshot()
	for _, e := range snap.Entities {
		if snap.PlayerID == 0 || e.ID != snap.PlayerID {
			continue
		}
		c.JSON(http.StatusOK, GenericResponse{
			Success: true,
			Message: "Игрок найден",
			Data: PlayerResponse{
				ID:             e.ID,
				X:              e.X,
				Y:              e.Y,
				Health:         e.Health,
				MaxHealth:      e.MaxHealth,
				HealthFraction: snap.HealthFraction,
				SelectedSlot:   snap.SelectedSlot,
			},
		})
		return
	}

	c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: game.ErrNoActivePlayer.Error()})
}

func (rs *RestServer) handleInventory(c *gin.Context) {
	var (
		slots    []inventory.Slot
		selected int
	)
	rs.runner.View(func(g *game.Game) {
		slots = g.Inventory().Slots()
		selected = g.Inventory().Selected()
	})

	type slotView struct {
		Index  int    `json:"index"`
		Attack string `json:"attack"`
	}
	views := make([]slotView, len(slots))
	for i, s := range slots {
		views[i] = slotView{Index: s.Index, Attack: s.Attack.String()}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Index < views[j].Index })

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Инвентарь",
		Data:    gin.H{"selected": selected, "slots": views},
	})
}

// handleSelectSlot выбирает слот инвентаря вне игрового ввода
func (rs *RestServer) handleSelectSlot(c *gin.Context) {
	var req SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат запроса: " + err.Error()})
		return
	}

	err := rs.runner.Do(func(g *game.Game) error {
		return g.SelectSlot(*req.Slot)
	})
	switch {
	case errors.Is(err, inventory.ErrInvalidSlot):
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
	case errors.Is(err, game.ErrRunnerStopped):
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
	default:
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Слот выбран", Data: gin.H{"selected": *req.Slot}})
	}
}

// handleInput ставит кадр ввода в очередь следующего шага
func (rs *RestServer) handleInput(c *gin.Context) {
	var f input.Frame
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Неверный формат ввода: " + err.Error()})
		return
	}

	rs.runner.Submit(f)
	c.JSON(http.StatusAccepted, GenericResponse{Success: true, Message: "Ввод принят"})
}

// handleSave принудительно сохраняет мир
func (rs *RestServer) handleSave(c *gin.Context) {
	if err := rs.runner.Save(c.Request.Context()); err != nil {
		rs.logger.Error("❌ Сохранение по запросу: %v", err)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Мир сохранён",
		Data:    gin.H{"frame": rs.runner.Snapshot().Frame},
	})
}
