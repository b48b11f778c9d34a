package service

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kamil6708/amazon-price-api/internal/domain"
	"github.com/kamil6708/amazon-price-api/internal/matching"
	"github.com/kamil6708/amazon-price-api/internal/metrics"
	"github.com/kamil6708/amazon-price-api/internal/repository"
)

type AlertService interface {
	CreateAlert(context.Context, domain.PriceAlert) (int64, error)
	ListActiveAlerts(context.Context) ([]domain.PriceAlert, error)
	GetAlert(context.Context, int64) (domain.PriceAlert, error)
	DeactivateAlert(context.Context, int64) (domain.PriceAlert, error)
	EvaluateObservations(context.Context, []domain.PriceObservation) ([]domain.TriggeredAlertEvent, error)
}

type alertService struct {
	alertRepository repository.PriceAlertRepository
	notifier        Notifier
	alertMetrics    *metrics.AlertMetrics
}

func NewAlertService(alertRepository repository.PriceAlertRepository, notifier Notifier, alertMetrics *metrics.AlertMetrics) AlertService {
	return &alertService{
		alertRepository: alertRepository,
		notifier:        notifier,
		alertMetrics:    alertMetrics,
	}
}

func (service *alertService) CreateAlert(requestContext context.Context, alert domain.PriceAlert) (int64, error) {
	if validationError := alert.ValidateForCreation(); validationError != nil {
		return 0, validationError
	}

	alert.Identifier = 0
	alert.IsActive = true
	alert.LastNotification = nil

	identifier, creationError := service.alertRepository.CreateAlert(requestContext, alert)
	if creationError != nil {
		return 0, creationError
	}
	service.alertMetrics.AlertsCreated.Inc()

	if alert.HasEmailRecipient() {
		subject, body := ComposeAlertCreatedMessage(alert)
		service.dispatchNotification(*alert.Email, subject, body)
	}

	return identifier, nil
}

func (service *alertService) ListActiveAlerts(requestContext context.Context) ([]domain.PriceAlert, error) {
	return service.alertRepository.ListActiveAlerts(requestContext)
}

func (service *alertService) GetAlert(requestContext context.Context, alertIdentifier int64) (domain.PriceAlert, error) {
	return service.alertRepository.GetAlert(requestContext, alertIdentifier)
}

func (service *alertService) DeactivateAlert(requestContext context.Context, alertIdentifier int64) (domain.PriceAlert, error) {
	deactivatedAlert, deactivationError := service.alertRepository.DeactivateAlert(requestContext, alertIdentifier)
	if deactivationError != nil {
		return domain.PriceAlert{}, deactivationError
	}
	service.alertMetrics.AlertsDeactivated.Inc()

	if deactivatedAlert.HasEmailRecipient() {
		subject, body := ComposeAlertDeactivatedMessage(deactivatedAlert)
		service.dispatchNotification(*deactivatedAlert.Email, subject, body)
	}

	return deactivatedAlert, nil
}

// EvaluateObservations runs one pricing batch: every active alert is compared
// against every observation, and every crossing is reported back even when
// its notification or bookkeeping failed along the way.
func (service *alertService) EvaluateObservations(requestContext context.Context, observations []domain.PriceObservation) ([]domain.TriggeredAlertEvent, error) {
	activeAlerts, listError := service.alertRepository.ListActiveAlerts(requestContext)
	if listError != nil {
		return nil, listError
	}

	triggeredEvents := matching.EvaluateAlerts(activeAlerts, observations)
	if len(triggeredEvents) == 0 {
		return triggeredEvents, nil
	}

	alertsByIdentifier := make(map[int64]domain.PriceAlert, len(activeAlerts))
	for _, alert := range activeAlerts {
		alertsByIdentifier[alert.Identifier] = alert
	}

	evaluationTime := time.Now().UTC()
	for _, event := range triggeredEvents {
		service.alertMetrics.AlertsTriggered.Inc()

		sourceAlert := alertsByIdentifier[event.AlertIdentifier]
		if sourceAlert.HasEmailRecipient() {
			subject, body := ComposeAlertTriggeredMessage(event)
			service.dispatchNotification(*sourceAlert.Email, subject, body)
		}

		recordError := service.alertRepository.RecordNotification(requestContext, event.AlertIdentifier, evaluationTime)
		if recordError != nil {
			log.Warnf("Could not record notification time for alert %d: %v", event.AlertIdentifier, recordError)
		}
	}

	return triggeredEvents, nil
}

func (service *alertService) dispatchNotification(recipientAddress string, subject string, messageBody string) {
	if service.notifier.Notify(recipientAddress, subject, messageBody) {
		service.alertMetrics.NotificationsDelivered.Inc()
		return
	}
	service.alertMetrics.NotificationsFailed.Inc()
}
