package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripconcierge/internal/models"
	"tripconcierge/internal/observability"
	"tripconcierge/internal/service/ai"
	"tripconcierge/internal/service/trips"
	"tripconcierge/internal/validation"
)

// ChatService answers chat turns and summarizes itineraries.
type ChatService interface {
	Ask(ctx context.Context, question string, history []models.Message, itinerary *string) (models.Reply, error)
	Summarize(ctx context.Context, itinerary *string) (string, error)
}

// WeatherRelay fetches a forecast for a coordinate pair.
type WeatherRelay interface {
	Forecast(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// Handler wires HTTP routes to the chat, trip and weather services.
type Handler struct {
	chat    ChatService
	trips   *trips.Service
	weather WeatherRelay
	metrics *observability.Metrics
	log     *zap.Logger
}

// NewHandler constructs a Handler instance. metrics may be nil.
func NewHandler(chat ChatService, tripService *trips.Service, weather WeatherRelay, metrics *observability.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		chat:    chat,
		trips:   tripService,
		weather: weather,
		metrics: metrics,
		log:     log,
	}
}

// RegisterRoutes mounts the /api routes plus /healthz and /metrics on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/chat", h.chatTurn)
	api.POST("/trips", h.saveTrip)
	api.GET("/trips", h.listTrips)
	api.GET("/trips/:id", h.getTrip)
	api.GET("/weather", h.getWeather)
	api.POST("/summary", h.summarize)

	router.GET("/healthz", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
}

// bindBody validates the raw body against v and decodes it into dst.
func bindBody(c *gin.Context, v *validation.Validator, dst any) bool {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := v.Validate(body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

type chatRequest struct {
	Question         string  `json:"question"`
	History          []any   `json:"history"`
	ItineraryContent *string `json:"itinerary_content"`
}

func (h *Handler) chatTurn(c *gin.Context) {
	var req chatRequest
	if !bindBody(c, validation.ChatRequest, &req) {
		return
	}
	ctx := c.Request.Context()
	reply, err := h.chat.Ask(ctx, req.Question, ai.ParseHistory(req.History), req.ItineraryContent)
	if err != nil {
		if errors.Is(err, ai.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.metrics.RecordGatewayFailure(ctx, ai.FailureKind(err))
		c.JSON(http.StatusOK, ai.DegradedReply(err))
		return
	}
	h.metrics.RecordReplyImages(ctx, len(reply.Images))
	c.JSON(http.StatusOK, reply)
}

type tripRequest struct {
	Name      *string        `json:"name"`
	Itinerary *string        `json:"itinerary"`
	Metadata  map[string]any `json:"metadata"`
}

func (h *Handler) saveTrip(c *gin.Context) {
	var req tripRequest
	if !bindBody(c, validation.TripRequest, &req) {
		return
	}
	id, err := h.trips.Create(c.Request.Context(), trips.CreateInput{
		Name:      req.Name,
		Itinerary: req.Itinerary,
		Metadata:  req.Metadata,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *Handler) getTrip(c *gin.Context) {
	trip, err := h.trips.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, trips.ErrInvalidTripID):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID"})
		case errors.Is(err, trips.ErrTripNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, trip)
}

func (h *Handler) listTrips(c *gin.Context) {
	list, err := h.trips.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"trips": list, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": list})
}

func (h *Handler) getWeather(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "lat must be a number"})
		return
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": "lon must be a number"})
		return
	}
	forecast, err := h.weather.Forecast(c.Request.Context(), lat, lon)
	if err != nil {
		h.log.Error("weather lookup failed", zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", forecast)
}

type summaryRequest struct {
	Itinerary *string `json:"itinerary"`
}

func (h *Handler) summarize(c *gin.Context) {
	var req summaryRequest
	if !bindBody(c, validation.SummaryRequest, &req) {
		return
	}
	ctx := c.Request.Context()
	summary, err := h.chat.Summarize(ctx, req.Itinerary)
	if err != nil {
		h.metrics.RecordGatewayFailure(ctx, ai.FailureKind(err))
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *Handler) health(c *gin.Context) {
	store := "disabled"
	if h.trips.Available() {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		store = "up"
		if err := h.trips.Ping(ctx); err != nil {
			h.log.Warn("trip store ping failed", zap.Error(err))
			store = "down"
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "store": store})
}
