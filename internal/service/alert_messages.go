package service

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kamil6708/amazon-price-api/internal/domain"
)

func ComposeAlertCreatedMessage(alert domain.PriceAlert) (string, string) {
	subject := fmt.Sprintf("Price alert created for %s", alert.ProductName)
	body := fmt.Sprintf("Your price alert for %s is active. You will be notified when the price goes %s %s.",
		alert.ProductName, alert.DirectionSummary(), formatPrice(alert.TargetPrice))
	return subject, body
}

func ComposeAlertDeactivatedMessage(alert domain.PriceAlert) (string, string) {
	subject := fmt.Sprintf("Price alert deactivated for %s", alert.ProductName)
	body := fmt.Sprintf("Your price alert for %s has been deactivated and will no longer send notifications.",
		alert.ProductName)
	return subject, body
}

func ComposeAlertTriggeredMessage(event domain.TriggeredAlertEvent) (string, string) {
	subject := fmt.Sprintf("Price alert triggered for %s", event.ProductName)
	body := fmt.Sprintf("%s is now %s, %s your target price of %s.\nListing: %s",
		event.ProductName, formatPrice(event.CurrentPrice), event.Direction, formatPrice(event.TargetPrice), event.SourceURL)
	return subject, body
}

func formatPrice(price float64) string {
	printer := message.NewPrinter(language.English)
	return printer.Sprintf("$%.2f", price)
}
