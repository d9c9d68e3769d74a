package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/logger"
)

// CSVSource reads a two-column file: a date column and a close column.
// The close column's header may be the asset name instead of "close";
// Symbol reports it after the first read.
type CSVSource struct {
	path   string
	symbol string
}

var _ interfaces.PriceSource = (*CSVSource)(nil)

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Symbol() string { return s.symbol }

type closeRow struct {
	Date  string `csv:"date"`
	Close string `csv:"close"`
}

// headerNormalizer renames the first two header cells so rows decode into closeRow.
type headerNormalizer struct {
	*csv.Reader
	header []string
}

func (h *headerNormalizer) ReadAll() ([][]string, error) {
	rows, err := h.Reader.ReadAll()
	if err != nil || len(rows) == 0 {
		return rows, err
	}
	h.header = append([]string(nil), rows[0]...)
	if len(rows[0]) > 0 {
		rows[0][0] = "date"
	}
	if len(rows[0]) > 1 {
		rows[0][1] = "close"
	}
	return rows, nil
}

func (s *CSVSource) Closes(ctx context.Context) ([]float64, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	hn := &headerNormalizer{Reader: r}

	var rows []closeRow
	if err := gocsv.UnmarshalCSV(hn, &rows); err != nil {
		return nil, fmt.Errorf("parse price file %s: %w", s.path, err)
	}
	if len(hn.header) > 1 && !strings.EqualFold(hn.header[1], "close") {
		s.symbol = strings.TrimSpace(hn.header[1])
	}

	closes := make([]float64, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row.Close), 64)
		if err != nil {
			skipped++
			continue
		}
		closes = append(closes, v)
	}
	if skipped > 0 {
		logger.Warn(ctx, "Skipped malformed price rows", "path", s.path, "skipped", skipped)
	}
	return closes, nil
}
