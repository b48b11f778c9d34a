package matching

import "github.com/kamil6708/amazon-price-api/internal/domain"

// EvaluateAlerts compares every active alert against every price observation
// in the batch and collects one event per crossing. Alerts are walked in the
// order given, and for each alert the observations are walked in the order
// given, so an alert matched by several observations produces several events.
func EvaluateAlerts(activeAlerts []domain.PriceAlert, observations []domain.PriceObservation) []domain.TriggeredAlertEvent {
	var triggeredEvents []domain.TriggeredAlertEvent

	for _, alert := range activeAlerts {
		for _, observation := range observations {
			if observation.ProductName != alert.ProductName {
				continue
			}

			direction := alert.TriggerDirection(observation.CurrentPrice)
			if direction == "" {
				continue
			}

			triggeredEvents = append(triggeredEvents, domain.TriggeredAlertEvent{
				AlertIdentifier: alert.Identifier,
				ProductName:     alert.ProductName,
				CurrentPrice:    observation.CurrentPrice,
				TargetPrice:     alert.TargetPrice,
				Direction:       direction,
				SourceURL:       observation.SourceURL,
			})
		}
	}

	return triggeredEvents
}
