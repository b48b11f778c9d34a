package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type PostgresConnector struct {
	Database *sql.DB
}

func InitializePostgresConnector(databaseURL string) (*PostgresConnector, error) {
	databaseConnection, connectionError := sql.Open("postgres", databaseURL)
	if connectionError != nil {
		return nil, errors.Wrap(connectionError, "open postgres connection")
	}

	pingContext, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	pingError := databaseConnection.PingContext(pingContext)
	if pingError != nil {
		logConnectionTroubleshootingGuidance(pingError)
		return nil, errors.Wrap(pingError, "ping postgres")
	}

	connector := &PostgresConnector{Database: databaseConnection}
	migrationError := connector.ensureSchema()
	if migrationError != nil {
		return nil, errors.Wrap(migrationError, "ensure price_alerts schema")
	}

	log.Info("Connected to PostgreSQL and ensured schema")
	return connector, nil
}

func (connector *PostgresConnector) ensureSchema() error {
	schemaCreationSQL := `
CREATE TABLE IF NOT EXISTS price_alerts (
    id SERIAL PRIMARY KEY,
    product_name TEXT NOT NULL,
    target_price REAL NOT NULL,
    notify_above BOOLEAN NOT NULL,
    notify_below BOOLEAN NOT NULL,
    webhook_url TEXT,
    email TEXT,
    is_active BOOLEAN DEFAULT TRUE,
    last_notification TIMESTAMP
);
`

	_, executionError := connector.Database.Exec(schemaCreationSQL)
	return executionError
}

func logConnectionTroubleshootingGuidance(connectionError error) {
	errorMessage := connectionError.Error()

	if strings.Contains(errorMessage, "role") && strings.Contains(errorMessage, "does not exist") {
		log.Warn("The configured database user does not exist inside the PostgreSQL data volume.")
		log.Warn("If you recently changed DB_USER or DB_PASSWORD, recreate the db_data volume or align credentials with the original database owner.")
		return
	}

	if strings.Contains(errorMessage, "password authentication failed") {
		log.Warn("PostgreSQL rejected the supplied credentials. Confirm DB_USER and DB_PASSWORD match the initialized database or recreate the db_data volume.")
	}
}

func (connector *PostgresConnector) Close() error {
	return connector.Database.Close()
}
