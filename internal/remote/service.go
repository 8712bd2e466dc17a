// Package remote talks to the row service, the tabular backend that acts as
// the catalogue's system of record.
package remote

import (
	"context"
	"errors"

	"go-catalogue-ws/internal/rows"
)

var (
	ErrNotConfigured = errors.New("row service is not configured")
	ErrUnknownSheet  = errors.New("unknown sheet")

	ErrImportUnsupported = errors.New("row backend does not support import")
)

// Importer is implemented by backends that can replace a whole sheet.
type Importer interface {
	Import(ctx context.Context, sheet string, data []rows.Row) error
}

// AppendResult reports the outcome of a write. Confirmed is true only when
// the backend acknowledged that the row was inserted; an unconfirmed
// append may or may not be durable.
type AppendResult struct {
	Confirmed bool   `json:"confirmed"`
	Message   string `json:"message,omitempty"`
}

// RowService is the consumed contract of the row service.
type RowService interface {
	// GetAll returns every record of a sheet. A sheet with fewer than two
	// populated rows (header plus one record) yields an empty slice.
	GetAll(ctx context.Context, sheet string) ([]rows.Row, error)
	// Append adds one record to a sheet, best effort.
	Append(ctx context.Context, sheet string, row rows.Row) (AppendResult, error)
}

func checkSheet(sheet string) error {
	if !rows.KnownSheet(sheet) {
		return ErrUnknownSheet
	}
	return nil
}

// Unconfigured is the row service used in guest mode.
type Unconfigured struct{}

func (Unconfigured) GetAll(context.Context, string) ([]rows.Row, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Append(context.Context, string, rows.Row) (AppendResult, error) {
	return AppendResult{}, ErrNotConfigured
}
