package domain

type TriggeredAlertEvent struct {
	AlertIdentifier int64
	ProductName     string
	CurrentPrice    float64
	TargetPrice     float64
	Direction       string
	SourceURL       string
}
