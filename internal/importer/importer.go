package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"marketplace/internal/domain"

	"github.com/shopspring/decimal"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// CSVImporter loads a business's catalogue from CSV. Rows are keyed by
// product name, so re-running an import updates prices and stock in place.
type CSVImporter struct {
	reader       *csv.Reader
	productRepo  ProductWriter
	categoryRepo CategoryWriter
	businessID   string
	categories   map[string]string
}

func NewCSVImporter(r io.Reader, repo ProductWriter, categories CategoryWriter, businessID string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:       csvr,
		productRepo:  repo,
		categoryRepo: categories,
		businessID:   businessID,
		categories:   make(map[string]string),
	}
}

type csvRow struct {
	Line      int
	Name      string
	Desc      string
	Category  string
	Price     decimal.Decimal
	Stock     int
	Available bool
}

// Run upserts every data row and returns how many products were written.
// The first invalid row stops the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"name", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing %q column", required)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.Line = line
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	p := domain.Product{
		BusinessID:    i.businessID,
		Name:          row.Name,
		Description:   row.Desc,
		Price:         row.Price,
		StockQuantity: row.Stock,
		IsAvailable:   row.Available,
	}
	if row.Category != "" {
		id, err := i.categoryID(ctx, row.Category)
		if err != nil {
			return fmt.Errorf("row %d: category %q: %w", row.Line, row.Category, err)
		}
		p.CategoryID = &id
	}

	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	return nil
}

func (i *CSVImporter) categoryID(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(name)
	if id, ok := i.categories[key]; ok {
		return id, nil
	}
	c, err := i.categoryRepo.Upsert(ctx, domain.Category{Name: name})
	if err != nil {
		return "", err
	}
	i.categories[key] = c.ID
	return c.ID, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// parseRow returns nil for blank lines.
func parseRow(record []string, index map[string]int) (*csvRow, error) {
	name := pick(record, index, "name")
	priceStr := pick(record, index, "price")
	if name == "" && priceStr == "" {
		return nil, nil
	}
	if name == "" {
		return nil, errors.New("name required")
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("invalid price %q for %q", priceStr, name)
	}

	row := &csvRow{
		Name:      name,
		Desc:      pick(record, index, "description"),
		Category:  pick(record, index, "category"),
		Price:     price.Round(2),
		Available: true,
	}
	if s := pick(record, index, "stock_quantity"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid stock_quantity %q for %q", s, name)
		}
		row.Stock = stock
	}
	if s := pick(record, index, "is_available"); s != "" {
		available, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid is_available %q for %q", s, name)
		}
		row.Available = available
	}
	return row, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
