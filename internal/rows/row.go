// Package rows converts the row service's untyped, string-valued records
// into catalogue entities and back. Nothing outside this package and the
// row service clients handles raw rows.
package rows

import (
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

// Row is one record of a sheet keyed by column header.
type Row map[string]string

// Sheet names known to the row service
const (
	SheetProducts   = "Products"
	SheetCategories = "Categories"
	SheetClusters   = "Clusters"
	SheetUsers      = "Users"
)

var columns = map[string][]string{
	SheetProducts: {
		"id", "name", "description", "category", "cluster", "price", "material", "size",
		"moq", "available", "images", "retailerId", "createdAt", "updatedAt",
	},
	SheetCategories: {"id", "name", "description", "image"},
	SheetClusters:   {"id", "name", "categoryId", "description"},
	SheetUsers:      {"uid", "email", "name", "role", "createdAt"},
}

// Columns returns the canonical column order of a sheet, nil for unknown
// sheets.
func Columns(sheet string) []string {
	cols, ok := columns[sheet]
	if !ok {
		return nil
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// KnownSheet reports whether sheet is one of the four catalogue sheets.
func KnownSheet(sheet string) bool {
	_, ok := columns[sheet]
	return ok
}

// Values orders the row's fields by cols, missing fields become "".
func (r Row) Values(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// FromValues zips a header with a record. Short records are padded with
// "" and surplus cells without a header are dropped.
func FromValues(header, record []string) Row {
	r := make(Row, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(record) {
			r[h] = record[i]
		} else {
			r[h] = ""
		}
	}
	return r
}

func (r Row) str(key string) string {
	return strings.TrimSpace(r[key])
}

func parsePrice(s string) float64 {
	v, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// parseMOQ goes through a float parse so "2.5" truncates to 2 and "08"
// is not read as octal.
func parseMOQ(s string) int {
	v, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 1 || v > math.MaxInt32 {
		return 1
	}
	return int(math.Trunc(v))
}

func parseBool(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
