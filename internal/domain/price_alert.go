package domain

import (
	"fmt"
	"time"
)

const (
	TriggerDirectionAbove = "above"
	TriggerDirectionBelow = "below"
)

type PriceAlert struct {
	Identifier       int64      `json:"id"`
	ProductName      string     `json:"product_name"`
	TargetPrice      float64    `json:"target_price"`
	NotifyAbove      bool       `json:"notify_above"`
	NotifyBelow      bool       `json:"notify_below"`
	WebhookURL       *string    `json:"webhook_url"`
	Email            *string    `json:"email"`
	IsActive         bool       `json:"is_active"`
	LastNotification *time.Time `json:"last_notification"`
}

func (alert PriceAlert) ValidateForCreation() error {
	if alert.ProductName == "" {
		return fmt.Errorf("%w: product name must not be empty", ErrInvalidAlert)
	}
	if alert.TargetPrice <= 0 {
		return fmt.Errorf("%w: target price must be greater than zero", ErrInvalidAlert)
	}
	if !alert.NotifyAbove && !alert.NotifyBelow {
		return fmt.Errorf("%w: at least one of notify_above or notify_below must be enabled", ErrInvalidAlert)
	}
	return nil
}

// TriggerDirection reports which boundary a quoted price crosses for this
// alert. It returns an empty string when the price does not trigger, and
// never triggers on an exact match with the target price.
func (alert PriceAlert) TriggerDirection(currentPrice float64) string {
	if alert.NotifyAbove && currentPrice > alert.TargetPrice {
		return TriggerDirectionAbove
	}
	if alert.NotifyBelow && currentPrice < alert.TargetPrice {
		return TriggerDirectionBelow
	}
	return ""
}

func (alert PriceAlert) DirectionSummary() string {
	switch {
	case alert.NotifyAbove && alert.NotifyBelow:
		return "above or below"
	case alert.NotifyAbove:
		return TriggerDirectionAbove
	default:
		return TriggerDirectionBelow
	}
}

func (alert PriceAlert) HasEmailRecipient() bool {
	return alert.Email != nil && *alert.Email != ""
}
