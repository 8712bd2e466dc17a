package remote

import (
	"context"
	"fmt"
	"time"

	"go-catalogue-ws/internal/repository"
	"go-catalogue-ws/internal/rows"
	"go-catalogue-ws/pkg/metrics"
)

// TableStore serves the row service contract from a SQL table. Appends are
// committed inserts and therefore always Confirmed.
type TableStore struct {
	repo repository.SheetRowRepository
}

func NewTableStore(repo repository.SheetRowRepository) *TableStore {
	return &TableStore{repo: repo}
}

func (s *TableStore) GetAll(_ context.Context, sheet string) ([]rows.Row, error) {
	if err := checkSheet(sheet); err != nil {
		return nil, err
	}
	start := time.Now()
	found, err := s.repo.FindBySheet(sheet)
	metrics.RecordRemote("table", "getAll", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("getAll %s: %w", sheet, err)
	}
	out := make([]rows.Row, 0, len(found))
	for _, r := range found {
		row := make(rows.Row, len(r.Data))
		for k, v := range r.Data {
			row[k] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *TableStore) Append(_ context.Context, sheet string, row rows.Row) (AppendResult, error) {
	if err := checkSheet(sheet); err != nil {
		return AppendResult{}, err
	}
	start := time.Now()
	rec := &repository.SheetRow{Sheet: sheet, Data: map[string]string(row)}
	err := s.repo.Create(rec)
	metrics.RecordRemote("table", "append", err, time.Since(start))
	if err != nil {
		return AppendResult{}, fmt.Errorf("append %s: %w", sheet, err)
	}
	return AppendResult{Confirmed: true, Message: fmt.Sprintf("row %d inserted into %s", rec.ID, sheet)}, nil
}

// Import replaces a sheet's content, used to seed a self-hosted backend
// from an export of the spreadsheet.
func (s *TableStore) Import(_ context.Context, sheet string, data []rows.Row) error {
	if err := checkSheet(sheet); err != nil {
		return err
	}
	plain := make([]map[string]string, 0, len(data))
	for _, r := range data {
		plain = append(plain, map[string]string(r))
	}
	start := time.Now()
	err := s.repo.ReplaceSheet(sheet, plain)
	metrics.RecordRemote("table", "import", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("import %s: %w", sheet, err)
	}
	return nil
}
