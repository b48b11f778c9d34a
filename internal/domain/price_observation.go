package domain

import "time"

type PriceObservation struct {
	ProductName  string    `json:"name"`
	CurrentPrice float64   `json:"current_price"`
	ObservedAt   time.Time `json:"timestamp"`
	SourceURL    string    `json:"url"`
}
