package backend

import (
	"fmt"

	"daromad/internal/config"
)

// FromAppConfig converts the application config to sink config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	sinkType := SinkType(appConfig.LedgerSink)
	if !sinkType.IsValid() {
		return Config{}, fmt.Errorf("invalid ledger sink in config: %s", appConfig.LedgerSink)
	}

	return Config{
		Type:                sinkType,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetName:     appConfig.GoogleSheetName,
	}, nil
}

// Validate validates the sink configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid ledger sink: %s", c.Type)
	}
	if c.Type == SheetsSink && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets sink")
	}
	return nil
}

// GetSinkTypes returns all valid sink types
func GetSinkTypes() []SinkType {
	return []SinkType{SheetsSink, MemorySink}
}
