package metrics

import "github.com/prometheus/client_golang/prometheus"

type AlertMetrics struct {
	AlertsCreated          prometheus.Counter
	AlertsDeactivated      prometheus.Counter
	AlertsTriggered        prometheus.Counter
	NotificationsDelivered prometheus.Counter
	NotificationsFailed    prometheus.Counter
}

func NewAlertMetrics(registerer prometheus.Registerer) *AlertMetrics {
	alertMetrics := &AlertMetrics{
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_alert",
			Subsystem: "api",
			Name:      "alerts_created",
			Help:      "The total number of price alerts created",
		}),
		AlertsDeactivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_alert",
			Subsystem: "api",
			Name:      "alerts_deactivated",
			Help:      "The total number of price alerts deactivated",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_alert",
			Subsystem: "api",
			Name:      "alerts_triggered",
			Help:      "The total number of alert triggers produced by price checks",
		}),
		NotificationsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_alert",
			Subsystem: "api",
			Name:      "notifications_delivered",
			Help:      "The total number of notification emails delivered",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "price_alert",
			Subsystem: "api",
			Name:      "notifications_failed",
			Help:      "The total number of notification emails that could not be delivered",
		}),
	}

	registerer.MustRegister(
		alertMetrics.AlertsCreated,
		alertMetrics.AlertsDeactivated,
		alertMetrics.AlertsTriggered,
		alertMetrics.NotificationsDelivered,
		alertMetrics.NotificationsFailed,
	)

	return alertMetrics
}
