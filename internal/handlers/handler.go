package handlers

import (
	"net/http"

	_ "neohub_controller/docs"
	"neohub_controller/internal/logger"
	"neohub_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options carries HTTP-layer settings.
type Options struct {
	APIToken  string // shared bearer token; empty disables the check
	StaticDir string
	UploadDir string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	return &Handler{services: services, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/static/index.html")
	})
	if h.opts.StaticDir != "" {
		router.Static("/static", h.opts.StaticDir)
	}

	h.registerAPIRoutes(router)

	// Status stream (HTTP upgrade) on the same port
	router.GET("/ws", h.tokenMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.tokenMiddleware)
	{
		h.registerSystemRoutes(api)
		h.registerScheduleRoutes(api)
		api.GET("/temperature", h.getTemperature)
		api.GET("/runs", h.getRuns)
		api.POST("/upload", h.upload)
	}
}

func (h *Handler) registerSystemRoutes(api *gin.RouterGroup) {
	system := api.Group("/system")
	{
		// Body example: {"cmd":"GET_LIVE_DATA","id":0}
		system.POST("", h.postSystem)
		system.GET("/:cmd/:id", h.getSystem)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedule := api.Group("/schedule")
	{
		// Body example: {"run":true,"time":"59 23 * * *","threshold_1":9,"threshold_2":5,"threshold_3":1,"threshold_4":-3}
		schedule.POST("", h.postSchedule)
		schedule.GET("", h.getSchedule)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
