package rows

import (
	"fmt"
	"io"

	"go-catalogue-ws/internal/model"

	"github.com/gocarina/gocsv"
)

// productRecord mirrors the Products sheet columns for CSV export.
type productRecord struct {
	ID          string `csv:"id"`
	Name        string `csv:"name"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
	Cluster     string `csv:"cluster"`
	Price       string `csv:"price"`
	Material    string `csv:"material"`
	Size        string `csv:"size"`
	MOQ         string `csv:"moq"`
	Available   string `csv:"available"`
	Images      string `csv:"images"`
	RetailerID  string `csv:"retailerId"`
	CreatedAt   string `csv:"createdAt"`
	UpdatedAt   string `csv:"updatedAt"`
}

// WriteProductsCSV writes products in the Products sheet layout, header
// first, so the file can be pasted back into the sheet.
func WriteProductsCSV(w io.Writer, products []model.Product) error {
	records := make([]*productRecord, 0, len(products))
	for _, p := range products {
		r := FromProduct(p)
		records = append(records, &productRecord{
			ID:          r["id"],
			Name:        r["name"],
			Description: r["description"],
			Category:    r["category"],
			Cluster:     r["cluster"],
			Price:       r["price"],
			Material:    r["material"],
			Size:        r["size"],
			MOQ:         r["moq"],
			Available:   r["available"],
			Images:      r["images"],
			RetailerID:  r["retailerId"],
			CreatedAt:   r["createdAt"],
			UpdatedAt:   r["updatedAt"],
		})
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to write products csv: %w", err)
	}
	return nil
}

// ReadCSV reads a sheet export whose first line holds the column headers,
// such as the file WriteProductsCSV produces.
func ReadCSV(r io.Reader) ([]Row, error) {
	records, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	out := make([]Row, 0, len(records))
	for _, rec := range records {
		out = append(out, Row(rec))
	}
	return out, nil
}
