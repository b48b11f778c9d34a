package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamil6708/amazon-price-api/internal/domain"
	"github.com/kamil6708/amazon-price-api/internal/metrics"
)

type recordedNotification struct {
	alertIdentifier int64
	notifiedAt      time.Time
}

type fakeAlertRepository struct {
	alertsByIdentifier map[int64]domain.PriceAlert
	createdAlerts      []domain.PriceAlert
	recordAttempts     []recordedNotification
	nextIdentifier     int64
	createError        error
	listError          error
	recordErrors       map[int64]error
}

func newFakeAlertRepository() *fakeAlertRepository {
	return &fakeAlertRepository{
		alertsByIdentifier: make(map[int64]domain.PriceAlert),
		recordErrors:       make(map[int64]error),
		nextIdentifier:     1,
	}
}

func (repository *fakeAlertRepository) seedActiveAlert(alert domain.PriceAlert) domain.PriceAlert {
	alert.Identifier = repository.nextIdentifier
	alert.IsActive = true
	repository.nextIdentifier++
	repository.alertsByIdentifier[alert.Identifier] = alert
	return alert
}

func (repository *fakeAlertRepository) CreateAlert(_ context.Context, alert domain.PriceAlert) (int64, error) {
	if repository.createError != nil {
		return 0, repository.createError
	}
	alert.Identifier = repository.nextIdentifier
	repository.nextIdentifier++
	repository.alertsByIdentifier[alert.Identifier] = alert
	repository.createdAlerts = append(repository.createdAlerts, alert)
	return alert.Identifier, nil
}

func (repository *fakeAlertRepository) ListActiveAlerts(_ context.Context) ([]domain.PriceAlert, error) {
	if repository.listError != nil {
		return nil, repository.listError
	}
	var activeAlerts []domain.PriceAlert
	for identifier := int64(1); identifier < repository.nextIdentifier; identifier++ {
		alert, exists := repository.alertsByIdentifier[identifier]
		if exists && alert.IsActive {
			activeAlerts = append(activeAlerts, alert)
		}
	}
	return activeAlerts, nil
}

func (repository *fakeAlertRepository) GetAlert(_ context.Context, alertIdentifier int64) (domain.PriceAlert, error) {
	alert, exists := repository.alertsByIdentifier[alertIdentifier]
	if !exists {
		return domain.PriceAlert{}, domain.ErrAlertNotFound
	}
	return alert, nil
}

func (repository *fakeAlertRepository) DeactivateAlert(_ context.Context, alertIdentifier int64) (domain.PriceAlert, error) {
	alert, exists := repository.alertsByIdentifier[alertIdentifier]
	if !exists || !alert.IsActive {
		return domain.PriceAlert{}, domain.ErrAlertNotFound
	}
	alert.IsActive = false
	repository.alertsByIdentifier[alertIdentifier] = alert
	return alert, nil
}

func (repository *fakeAlertRepository) RecordNotification(_ context.Context, alertIdentifier int64, notifiedAt time.Time) error {
	repository.recordAttempts = append(repository.recordAttempts, recordedNotification{
		alertIdentifier: alertIdentifier,
		notifiedAt:      notifiedAt,
	})
	if recordError := repository.recordErrors[alertIdentifier]; recordError != nil {
		return recordError
	}
	alert, exists := repository.alertsByIdentifier[alertIdentifier]
	if exists {
		value := notifiedAt
		alert.LastNotification = &value
		repository.alertsByIdentifier[alertIdentifier] = alert
	}
	return nil
}

type notifierDelivery struct {
	recipientAddress string
	subject          string
	messageBody      string
}

type fakeNotifier struct {
	deliveries []notifierDelivery
	failAll    bool
}

func (notifier *fakeNotifier) Notify(recipientAddress string, subject string, messageBody string) bool {
	notifier.deliveries = append(notifier.deliveries, notifierDelivery{
		recipientAddress: recipientAddress,
		subject:          subject,
		messageBody:      messageBody,
	})
	return !notifier.failAll
}

func newAlertServiceWithFakes(repository *fakeAlertRepository, notifier *fakeNotifier) AlertService {
	return NewAlertService(repository, notifier, metrics.NewAlertMetrics(prometheus.NewRegistry()))
}

func stringPointer(value string) *string {
	return &value
}

func TestCreateAlertRejectsMissingProductName(t *testing.T) {
	repository := newFakeAlertRepository()
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	_, creationError := alertService.CreateAlert(context.Background(), domain.PriceAlert{
		TargetPrice: 100,
		NotifyBelow: true,
	})

	require.ErrorIs(t, creationError, domain.ErrInvalidAlert)
	assert.Empty(t, repository.createdAlerts)
	assert.Empty(t, notifier.deliveries)
}

func TestCreateAlertRejectsNonPositiveTargetPrice(t *testing.T) {
	repository := newFakeAlertRepository()
	alertService := newAlertServiceWithFakes(repository, &fakeNotifier{})

	_, creationError := alertService.CreateAlert(context.Background(), domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 0,
		NotifyBelow: true,
	})

	require.ErrorIs(t, creationError, domain.ErrInvalidAlert)
}

func TestCreateAlertRejectsDisabledDirections(t *testing.T) {
	repository := newFakeAlertRepository()
	alertService := newAlertServiceWithFakes(repository, &fakeNotifier{})

	_, creationError := alertService.CreateAlert(context.Background(), domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 100,
	})

	require.ErrorIs(t, creationError, domain.ErrInvalidAlert)
}

func TestCreateAlertPersistsAndNotifiesRecipient(t *testing.T) {
	repository := newFakeAlertRepository()
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	identifier, creationError := alertService.CreateAlert(context.Background(), domain.PriceAlert{
		ProductName: "Mechanical Keyboard",
		TargetPrice: 100,
		NotifyBelow: true,
		Email:       stringPointer("buyer@example.com"),
	})

	require.NoError(t, creationError)
	assert.Equal(t, int64(1), identifier)

	require.Len(t, repository.createdAlerts, 1)
	persistedAlert := repository.createdAlerts[0]
	assert.True(t, persistedAlert.IsActive)
	assert.Nil(t, persistedAlert.LastNotification)

	require.Len(t, notifier.deliveries, 1)
	assert.Equal(t, "buyer@example.com", notifier.deliveries[0].recipientAddress)
	assert.Contains(t, notifier.deliveries[0].subject, "Mechanical Keyboard")
	assert.Contains(t, notifier.deliveries[0].messageBody, "below")
}

func TestCreateAlertSkipsNotificationWithoutEmail(t *testing.T) {
	repository := newFakeAlertRepository()
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	_, creationError := alertService.CreateAlert(context.Background(), domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyAbove: true,
	})

	require.NoError(t, creationError)
	assert.Empty(t, notifier.deliveries)
}

func TestCreateAlertSucceedsWhenNotificationFails(t *testing.T) {
	repository := newFakeAlertRepository()
	notifier := &fakeNotifier{failAll: true}
	alertService := newAlertServiceWithFakes(repository, notifier)

	identifier, creationError := alertService.CreateAlert(context.Background(), domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyAbove: true,
		Email:       stringPointer("buyer@example.com"),
	})

	require.NoError(t, creationError)
	assert.Equal(t, int64(1), identifier)
	assert.Len(t, notifier.deliveries, 1)
}

func TestDeactivateAlertPassesThroughNotFound(t *testing.T) {
	repository := newFakeAlertRepository()
	alertService := newAlertServiceWithFakes(repository, &fakeNotifier{})

	_, deactivationError := alertService.DeactivateAlert(context.Background(), 42)

	require.ErrorIs(t, deactivationError, domain.ErrAlertNotFound)
}

func TestDeactivateAlertReportsNotFoundWhenAlreadyInactive(t *testing.T) {
	repository := newFakeAlertRepository()
	seededAlert := repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
	})
	alertService := newAlertServiceWithFakes(repository, &fakeNotifier{})

	_, firstError := alertService.DeactivateAlert(context.Background(), seededAlert.Identifier)
	require.NoError(t, firstError)

	_, secondError := alertService.DeactivateAlert(context.Background(), seededAlert.Identifier)
	require.ErrorIs(t, secondError, domain.ErrAlertNotFound)
}

func TestDeactivateAlertNotifiesRecipient(t *testing.T) {
	repository := newFakeAlertRepository()
	seededAlert := repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
		Email:       stringPointer("buyer@example.com"),
	})
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	deactivatedAlert, deactivationError := alertService.DeactivateAlert(context.Background(), seededAlert.Identifier)

	require.NoError(t, deactivationError)
	assert.False(t, deactivatedAlert.IsActive)
	require.Len(t, notifier.deliveries, 1)
	assert.Contains(t, notifier.deliveries[0].subject, "deactivated")
}

func TestEvaluateObservationsSharesOneBatchTime(t *testing.T) {
	repository := newFakeAlertRepository()
	repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
		Email:       stringPointer("first@example.com"),
	})
	repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 300,
		NotifyBelow: true,
		Email:       stringPointer("second@example.com"),
	})
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Monitor", CurrentPrice: 200, ObservedAt: time.Now(), SourceURL: "https://example.com/monitor"},
	})

	require.NoError(t, evaluationError)
	require.Len(t, triggeredEvents, 2)
	assert.Len(t, notifier.deliveries, 2)

	require.Len(t, repository.recordAttempts, 2)
	assert.Equal(t, repository.recordAttempts[0].notifiedAt, repository.recordAttempts[1].notifiedAt)
}

func TestEvaluateObservationsIgnoresDeactivatedAlerts(t *testing.T) {
	repository := newFakeAlertRepository()
	seededAlert := repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
		Email:       stringPointer("buyer@example.com"),
	})
	alertService := newAlertServiceWithFakes(repository, &fakeNotifier{})

	_, deactivationError := alertService.DeactivateAlert(context.Background(), seededAlert.Identifier)
	require.NoError(t, deactivationError)

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Monitor", CurrentPrice: 200},
	})

	require.NoError(t, evaluationError)
	assert.Empty(t, triggeredEvents)
	assert.Empty(t, repository.recordAttempts)
}

func TestEvaluateObservationsWidgetDropScenario(t *testing.T) {
	repository := newFakeAlertRepository()
	seededAlert := repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Widget",
		TargetPrice: 100,
		NotifyBelow: true,
		Email:       stringPointer("buyer@example.com"),
	})
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Widget", CurrentPrice: 90, ObservedAt: time.Now(), SourceURL: "https://example.com/widget"},
	})

	require.NoError(t, evaluationError)
	require.Len(t, triggeredEvents, 1)
	assert.Equal(t, seededAlert.Identifier, triggeredEvents[0].AlertIdentifier)
	assert.Equal(t, "Widget", triggeredEvents[0].ProductName)
	assert.Equal(t, 90.0, triggeredEvents[0].CurrentPrice)
	assert.Equal(t, 100.0, triggeredEvents[0].TargetPrice)
	assert.Equal(t, domain.TriggerDirectionBelow, triggeredEvents[0].Direction)

	storedAlert, lookupError := repository.GetAlert(context.Background(), seededAlert.Identifier)
	require.NoError(t, lookupError)
	assert.NotNil(t, storedAlert.LastNotification)
	assert.True(t, storedAlert.IsActive)

	require.Len(t, notifier.deliveries, 1)
	assert.Equal(t, "buyer@example.com", notifier.deliveries[0].recipientAddress)
	assert.Contains(t, notifier.deliveries[0].messageBody, "https://example.com/widget")
}

func TestEvaluateObservationsSkipsNotificationWithoutEmail(t *testing.T) {
	repository := newFakeAlertRepository()
	repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
	})
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Monitor", CurrentPrice: 200},
	})

	require.NoError(t, evaluationError)
	require.Len(t, triggeredEvents, 1)
	assert.Empty(t, notifier.deliveries)
	assert.Len(t, repository.recordAttempts, 1)
}

func TestEvaluateObservationsContinuesAfterRecordFailure(t *testing.T) {
	repository := newFakeAlertRepository()
	firstAlert := repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
	})
	repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 300,
		NotifyBelow: true,
	})
	repository.recordErrors[firstAlert.Identifier] = fmt.Errorf("connection reset")
	alertService := newAlertServiceWithFakes(repository, &fakeNotifier{})

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Monitor", CurrentPrice: 200},
	})

	require.NoError(t, evaluationError)
	assert.Len(t, triggeredEvents, 2)
	assert.Len(t, repository.recordAttempts, 2)
}

func TestEvaluateObservationsReturnsEventsWhenNotifierFails(t *testing.T) {
	repository := newFakeAlertRepository()
	repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
		Email:       stringPointer("buyer@example.com"),
	})
	notifier := &fakeNotifier{failAll: true}
	alertService := newAlertServiceWithFakes(repository, notifier)

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Monitor", CurrentPrice: 200},
	})

	require.NoError(t, evaluationError)
	assert.Len(t, triggeredEvents, 1)
	assert.Len(t, repository.recordAttempts, 1)
}

func TestEvaluateObservationsPropagatesListFailure(t *testing.T) {
	repository := newFakeAlertRepository()
	repository.listError = fmt.Errorf("connection refused")
	alertService := newAlertServiceWithFakes(repository, &fakeNotifier{})

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Monitor", CurrentPrice: 200},
	})

	require.Error(t, evaluationError)
	assert.Nil(t, triggeredEvents)
}

func TestEvaluateObservationsWithoutMatchesDoesNothing(t *testing.T) {
	repository := newFakeAlertRepository()
	repository.seedActiveAlert(domain.PriceAlert{
		ProductName: "Monitor",
		TargetPrice: 250,
		NotifyBelow: true,
		Email:       stringPointer("buyer@example.com"),
	})
	notifier := &fakeNotifier{}
	alertService := newAlertServiceWithFakes(repository, notifier)

	triggeredEvents, evaluationError := alertService.EvaluateObservations(context.Background(), []domain.PriceObservation{
		{ProductName: "Keyboard", CurrentPrice: 200},
	})

	require.NoError(t, evaluationError)
	assert.Empty(t, triggeredEvents)
	assert.Empty(t, notifier.deliveries)
	assert.Empty(t, repository.recordAttempts)
}
