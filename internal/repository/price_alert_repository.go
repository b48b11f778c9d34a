package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/kamil6708/amazon-price-api/internal/domain"
)

const statementTimeout = 5 * time.Second

type PriceAlertRepository interface {
	CreateAlert(context.Context, domain.PriceAlert) (int64, error)
	ListActiveAlerts(context.Context) ([]domain.PriceAlert, error)
	GetAlert(context.Context, int64) (domain.PriceAlert, error)
	DeactivateAlert(context.Context, int64) (domain.PriceAlert, error)
	RecordNotification(context.Context, int64, time.Time) error
}

type PostgresPriceAlertRepository struct {
	Database *sql.DB
}

func NewPostgresPriceAlertRepository(database *sql.DB) *PostgresPriceAlertRepository {
	return &PostgresPriceAlertRepository{Database: database}
}

func (repository *PostgresPriceAlertRepository) CreateAlert(contextWithTimeout context.Context, alert domain.PriceAlert) (int64, error) {
	insertSQL := `INSERT INTO price_alerts(product_name, target_price, notify_above, notify_below, webhook_url, email, is_active) VALUES($1, $2, $3, $4, $5, $6, true) RETURNING id`
	statementContext, statementCancel := context.WithTimeout(contextWithTimeout, statementTimeout)
	defer statementCancel()

	row := repository.Database.QueryRowContext(statementContext, insertSQL, alert.ProductName, alert.TargetPrice, alert.NotifyAbove, alert.NotifyBelow, alert.WebhookURL, alert.Email)
	var identifier int64
	scanError := row.Scan(&identifier)
	if scanError != nil {
		return 0, errors.Wrap(scanError, "insert price alert")
	}

	return identifier, nil
}

func (repository *PostgresPriceAlertRepository) ListActiveAlerts(contextWithTimeout context.Context) ([]domain.PriceAlert, error) {
	querySQL := `SELECT id, product_name, target_price, notify_above, notify_below, webhook_url, email, is_active, last_notification FROM price_alerts WHERE is_active = true ORDER BY id`
	queryContext, queryCancel := context.WithTimeout(contextWithTimeout, statementTimeout)
	defer queryCancel()

	rows, queryError := repository.Database.QueryContext(queryContext, querySQL)
	if queryError != nil {
		return nil, errors.Wrap(queryError, "query active price alerts")
	}
	defer rows.Close()

	var alerts []domain.PriceAlert
	for rows.Next() {
		alert, scanError := scanPriceAlert(rows)
		if scanError != nil {
			return nil, errors.Wrap(scanError, "scan price alert row")
		}
		alerts = append(alerts, alert)
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, errors.Wrap(rowsError, "iterate price alert rows")
	}

	return alerts, nil
}

func (repository *PostgresPriceAlertRepository) GetAlert(contextWithTimeout context.Context, alertIdentifier int64) (domain.PriceAlert, error) {
	querySQL := `SELECT id, product_name, target_price, notify_above, notify_below, webhook_url, email, is_active, last_notification FROM price_alerts WHERE id = $1`
	queryContext, queryCancel := context.WithTimeout(contextWithTimeout, statementTimeout)
	defer queryCancel()

	row := repository.Database.QueryRowContext(queryContext, querySQL, alertIdentifier)
	alert, scanError := scanPriceAlert(row)
	if scanError == sql.ErrNoRows {
		return domain.PriceAlert{}, domain.ErrAlertNotFound
	}
	if scanError != nil {
		return domain.PriceAlert{}, errors.Wrap(scanError, "load price alert")
	}

	return alert, nil
}

func (repository *PostgresPriceAlertRepository) DeactivateAlert(contextWithTimeout context.Context, alertIdentifier int64) (domain.PriceAlert, error) {
	updateSQL := `UPDATE price_alerts SET is_active = false WHERE id = $1 AND is_active = true RETURNING id, product_name, target_price, notify_above, notify_below, webhook_url, email, is_active, last_notification`
	statementContext, statementCancel := context.WithTimeout(contextWithTimeout, statementTimeout)
	defer statementCancel()

	row := repository.Database.QueryRowContext(statementContext, updateSQL, alertIdentifier)
	alert, scanError := scanPriceAlert(row)
	if scanError == sql.ErrNoRows {
		return domain.PriceAlert{}, domain.ErrAlertNotFound
	}
	if scanError != nil {
		return domain.PriceAlert{}, errors.Wrap(scanError, "deactivate price alert")
	}

	return alert, nil
}

func (repository *PostgresPriceAlertRepository) RecordNotification(contextWithTimeout context.Context, alertIdentifier int64, notifiedAt time.Time) error {
	updateSQL := `UPDATE price_alerts SET last_notification = $2 WHERE id = $1`
	statementContext, statementCancel := context.WithTimeout(contextWithTimeout, statementTimeout)
	defer statementCancel()

	_, updateError := repository.Database.ExecContext(statementContext, updateSQL, alertIdentifier, notifiedAt)
	return errors.Wrap(updateError, "record notification time")
}

type rowScanner interface {
	Scan(destinations ...any) error
}

func scanPriceAlert(scanner rowScanner) (domain.PriceAlert, error) {
	var alert domain.PriceAlert
	var webhookURL sql.NullString
	var emailAddress sql.NullString
	var lastNotification sql.NullTime

	scanError := scanner.Scan(&alert.Identifier, &alert.ProductName, &alert.TargetPrice, &alert.NotifyAbove, &alert.NotifyBelow, &webhookURL, &emailAddress, &alert.IsActive, &lastNotification)
	if scanError != nil {
		return domain.PriceAlert{}, scanError
	}

	if webhookURL.Valid {
		value := webhookURL.String
		alert.WebhookURL = &value
	}
	if emailAddress.Valid {
		value := emailAddress.String
		alert.Email = &value
	}
	if lastNotification.Valid {
		value := lastNotification.Time
		alert.LastNotification = &value
	}

	return alert, nil
}
