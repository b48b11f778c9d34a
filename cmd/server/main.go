package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/kamil6708/amazon-price-api/internal/config"
	"github.com/kamil6708/amazon-price-api/internal/database"
	"github.com/kamil6708/amazon-price-api/internal/httpserver"
	"github.com/kamil6708/amazon-price-api/internal/metrics"
	"github.com/kamil6708/amazon-price-api/internal/repository"
	"github.com/kamil6708/amazon-price-api/internal/service"
)

func main() {
	applicationConfiguration := config.LoadApplicationConfiguration()

	postgresConnector, connectionError := database.InitializePostgresConnector(applicationConfiguration.DatabaseURL)
	if connectionError != nil {
		log.Fatalf("Could not connect to database: %v", connectionError)
	}
	defer postgresConnector.Close()

	priceAlertRepository := repository.NewPostgresPriceAlertRepository(postgresConnector.Database)

	notificationService := service.NewNotificationService(applicationConfiguration.EmailSenderAddress, applicationConfiguration.EmailSenderPassword)
	alertMetrics := metrics.NewAlertMetrics(prometheus.DefaultRegisterer)
	alertService := service.NewAlertService(priceAlertRepository, notificationService, alertMetrics)

	server := httpserver.NewServer(alertService)
	router := server.RegisterRoutes()

	applicationContext, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverAddress := ":" + applicationConfiguration.ServerPort
	httpServer := &http.Server{Addr: serverAddress, Handler: router}

	go func() {
		log.Infof("Server running on %s", serverAddress)
		startError := httpServer.ListenAndServe()
		if startError != nil && startError != http.ErrServerClosed {
			log.Fatalf("Server error: %v", startError)
		}
	}()

	<-applicationContext.Done()
	shutdownContext, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	shutdownError := httpServer.Shutdown(shutdownContext)
	if shutdownError != nil {
		log.Warnf("Graceful shutdown failed: %v", shutdownError)
	}

	log.Info("Application stopped")
}
