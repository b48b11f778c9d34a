package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/kamil6708/amazon-price-api/internal/domain"
	"github.com/kamil6708/amazon-price-api/internal/service"
)

const apiVersion = "1.0.0"

type Server struct {
	AlertService service.AlertService
}

func NewServer(alertService service.AlertService) *Server {
	return &Server{AlertService: alertService}
}

func (server *Server) RegisterRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	router.GET("/", server.handleRoot)
	router.GET("/health", server.handleHealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/alerts/", server.handleCreateAlert)
	router.GET("/alerts/", server.handleListAlerts)
	router.GET("/alerts/:id", server.handleGetAlert)
	router.DELETE("/alerts/:id", server.handleDeactivateAlert)
	router.POST("/check-prices", server.handleCheckPrices)

	return router
}

type createAlertRequest struct {
	ProductName string  `json:"product_name"`
	TargetPrice float64 `json:"target_price"`
	NotifyAbove *bool   `json:"notify_above"`
	NotifyBelow *bool   `json:"notify_below"`
	WebhookURL  *string `json:"webhook_url"`
	Email       *string `json:"email"`
}

// toDomainAlert applies the request defaults: watching for price drops is on
// unless the caller disables it, watching for rises is off unless enabled.
func (request createAlertRequest) toDomainAlert() domain.PriceAlert {
	alert := domain.PriceAlert{
		ProductName: request.ProductName,
		TargetPrice: request.TargetPrice,
		NotifyAbove: false,
		NotifyBelow: true,
		WebhookURL:  request.WebhookURL,
		Email:       request.Email,
	}
	if request.NotifyAbove != nil {
		alert.NotifyAbove = *request.NotifyAbove
	}
	if request.NotifyBelow != nil {
		alert.NotifyBelow = *request.NotifyBelow
	}
	return alert
}

type triggeredAlertResponse struct {
	AlertID      int64   `json:"alert_id"`
	ProductName  string  `json:"product_name"`
	CurrentPrice float64 `json:"current_price"`
	TargetPrice  float64 `json:"target_price"`
}

type checkPricesResponse struct {
	AlertsTriggered []triggeredAlertResponse `json:"alerts_triggered"`
}

func (server *Server) handleRoot(requestContext *gin.Context) {
	requestContext.JSON(http.StatusOK, gin.H{
		"message": "Amazon Price Alert API is running",
		"version": apiVersion,
	})
}

func (server *Server) handleHealthCheck(requestContext *gin.Context) {
	requestContext.String(http.StatusOK, "ok")
}

func (server *Server) handleCreateAlert(requestContext *gin.Context) {
	var request createAlertRequest
	if bindError := requestContext.ShouldBindJSON(&request); bindError != nil {
		requestContext.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid alert payload"})
		return
	}

	alertIdentifier, creationError := server.AlertService.CreateAlert(requestContext.Request.Context(), request.toDomainAlert())
	if creationError != nil {
		server.respondWithServiceError(requestContext, creationError)
		return
	}

	requestContext.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Alert created successfully",
		"alert_id": alertIdentifier,
	})
}

func (server *Server) handleListAlerts(requestContext *gin.Context) {
	activeAlerts, listError := server.AlertService.ListActiveAlerts(requestContext.Request.Context())
	if listError != nil {
		server.respondWithServiceError(requestContext, listError)
		return
	}

	if activeAlerts == nil {
		activeAlerts = []domain.PriceAlert{}
	}
	requestContext.JSON(http.StatusOK, activeAlerts)
}

func (server *Server) handleGetAlert(requestContext *gin.Context) {
	alertIdentifier, parseError := parseAlertIdentifier(requestContext)
	if parseError != nil {
		return
	}

	alert, lookupError := server.AlertService.GetAlert(requestContext.Request.Context(), alertIdentifier)
	if lookupError != nil {
		server.respondWithServiceError(requestContext, lookupError)
		return
	}

	requestContext.JSON(http.StatusOK, alert)
}

func (server *Server) handleDeactivateAlert(requestContext *gin.Context) {
	alertIdentifier, parseError := parseAlertIdentifier(requestContext)
	if parseError != nil {
		return
	}

	_, deactivationError := server.AlertService.DeactivateAlert(requestContext.Request.Context(), alertIdentifier)
	if deactivationError != nil {
		server.respondWithServiceError(requestContext, deactivationError)
		return
	}

	requestContext.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Alert deactivated",
	})
}

func (server *Server) handleCheckPrices(requestContext *gin.Context) {
	var observations []domain.PriceObservation
	if bindError := requestContext.ShouldBindJSON(&observations); bindError != nil {
		requestContext.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid price list payload"})
		return
	}

	triggeredEvents, evaluationError := server.AlertService.EvaluateObservations(requestContext.Request.Context(), observations)
	if evaluationError != nil {
		server.respondWithServiceError(requestContext, evaluationError)
		return
	}

	response := checkPricesResponse{AlertsTriggered: make([]triggeredAlertResponse, 0, len(triggeredEvents))}
	for _, event := range triggeredEvents {
		response.AlertsTriggered = append(response.AlertsTriggered, triggeredAlertResponse{
			AlertID:      event.AlertIdentifier,
			ProductName:  event.ProductName,
			CurrentPrice: event.CurrentPrice,
			TargetPrice:  event.TargetPrice,
		})
	}

	requestContext.JSON(http.StatusOK, response)
}

func parseAlertIdentifier(requestContext *gin.Context) (int64, error) {
	alertIdentifier, parseError := strconv.ParseInt(requestContext.Param("id"), 10, 64)
	if parseError != nil {
		requestContext.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Alert id must be an integer"})
		return 0, parseError
	}
	return alertIdentifier, nil
}

func (server *Server) respondWithServiceError(requestContext *gin.Context, serviceError error) {
	switch {
	case errors.Is(serviceError, domain.ErrInvalidAlert):
		requestContext.JSON(http.StatusUnprocessableEntity, gin.H{"detail": serviceError.Error()})
	case errors.Is(serviceError, domain.ErrAlertNotFound):
		requestContext.JSON(http.StatusNotFound, gin.H{"detail": "Alert not found"})
	default:
		log.Errorf("Request to %s failed: %v", requestContext.Request.URL.Path, serviceError)
		requestContext.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}

func requestLoggerMiddleware() gin.HandlerFunc {
	return func(requestContext *gin.Context) {
		startTime := time.Now()
		requestIdentifier := uuid.NewString()
		requestContext.Writer.Header().Set("X-Request-ID", requestIdentifier)

		requestContext.Next()

		log.WithFields(log.Fields{
			"request_id": requestIdentifier,
			"method":     requestContext.Request.Method,
			"path":       requestContext.Request.URL.Path,
			"status":     requestContext.Writer.Status(),
			"latency":    time.Since(startTime).String(),
		}).Info("Request handled")
	}
}
