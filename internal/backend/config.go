package backend

import (
	"fmt"

	"driverlog/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleSheetName:       appConfig.GoogleSheetName,
		GoogleCredentialsFile: appConfig.GoogleCredentialsFile,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,
	}, nil
}

// Validate validates the backend configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		// AMQP is optional.

	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleCredentialsFile == "" && c.GoogleCredentialsJSON == "" {
			return fmt.Errorf("either GoogleCredentialsFile or GoogleCredentialsJSON must be provided for sheets backend")
		}

	case MemoryBackend:
		// Nothing to validate.
	}

	return nil
}
