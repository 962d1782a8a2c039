package ports

import (
	"context"

	"spendview/internal/catalog"
	"spendview/internal/core"
)

// Ports for outbound adapters.
type (
	// SessionOpener makes one connection attempt per render pass.
	SessionOpener interface {
		Open(ctx context.Context, creds core.Credentials) (QuerySession, error)
	}

	// QuerySession runs catalog entries against one live connection.
	QuerySession interface {
		Run(ctx context.Context, entry catalog.Entry) (core.ResultTable, error)
		Close() error
	}

	// EventPublisher announces executed queries. Events never carry credentials.
	EventPublisher interface {
		PublishQueryExecuted(ctx context.Context, ev core.QueryEvent) error
	}

	// SheetExporter writes a result table to an external spreadsheet.
	SheetExporter interface {
		// Export replaces the target sheet with table and returns the updated range.
		Export(ctx context.Context, title string, table core.ResultTable) (rangeRef string, err error)
	}
)
