//go:build integration

package google

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"daromad/internal/core"
	ports "daromad/internal/sheets"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_AppendLedgerRow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if _, err := loadCredentials(); err != nil {
		t.Skipf("credentials not configured: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, spreadsheetID, os.Getenv("GOOGLE_SHEET_NAME"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ref, err := client.Append(ctx, ports.LedgerRow{
		TransactionID: time.Now().Unix(),
		Date:          core.DateOf(time.Now()),
		Description:   "integration test",
		Amount:        core.MustMoney("0.01"),
		CategoryPath:  "Test",
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if !strings.Contains(ref, client.ledgerSheet) {
		t.Errorf("ref %q does not name sheet %q", ref, client.ledgerSheet)
	}
}
