// Package catalogmap adapts the two historical product record shapes to the
// canonical catalog.Product and seeds the catalog and stock ledger from a
// YAML file.
//
// Relational records carry id, a decimal string price and an integer stock.
// Document records carry _id, a float price, an optional stock and an
// inStock flag; a record with inStock false seeds zero stock whatever its
// stock field says.
package catalogmap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/domain/catalog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	SchemaRelational = "relational"
	SchemaDocument   = "document"

	// documentDefaultStock applies to in-stock documents without a stock count.
	documentDefaultStock = 1
)

type RelationalRecord struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Stock int    `yaml:"stock"`
}

type DocumentRecord struct {
	ID      string  `yaml:"_id"`
	Name    string  `yaml:"name"`
	Price   float64 `yaml:"price"`
	Stock   *int    `yaml:"stock"`
	InStock *bool   `yaml:"inStock"`
}

// Entry is one canonical product with its initial stock.
type Entry struct {
	Product catalog.Product
	Stock   int
}

func FromRelational(r RelationalRecord) (Entry, error) {
	if strings.TrimSpace(r.ID) == "" {
		return Entry{}, fmt.Errorf("catalogmap: relational record without id")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return Entry{}, fmt.Errorf("catalogmap: product %s: price %q: %w", r.ID, r.Price, err)
	}
	return newEntry(r.ID, r.Name, price, r.Stock)
}

func FromDocument(d DocumentRecord) (Entry, error) {
	if strings.TrimSpace(d.ID) == "" {
		return Entry{}, fmt.Errorf("catalogmap: document record without _id")
	}
	stock := documentDefaultStock
	if d.Stock != nil {
		stock = *d.Stock
	}
	if d.InStock != nil && !*d.InStock {
		stock = 0
	}
	return newEntry(d.ID, d.Name, decimal.NewFromFloat(d.Price), stock)
}

func newEntry(id, name string, price decimal.Decimal, stock int) (Entry, error) {
	if price.IsNegative() {
		return Entry{}, fmt.Errorf("catalogmap: product %s: negative price", id)
	}
	if stock < 0 {
		return Entry{}, fmt.Errorf("catalogmap: product %s: negative stock", id)
	}
	if name == "" {
		name = id
	}
	return Entry{
		Product: catalog.Product{ID: id, Name: name, Price: price},
		Stock:   stock,
	}, nil
}

type seedFile struct {
	Products []yaml.Node `yaml:"products"`
}

// Parse decodes a seed document. Each product is tagged with its schema.
func Parse(data []byte) ([]Entry, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalogmap: parse seed: %w", err)
	}

	entries := make([]Entry, 0, len(f.Products))
	seen := make(map[string]bool, len(f.Products))
	for i := range f.Products {
		node := &f.Products[i]
		var head struct {
			Schema string `yaml:"schema"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("catalogmap: product %d: %w", i, err)
		}

		var (
			e   Entry
			err error
		)
		switch strings.ToLower(head.Schema) {
		case SchemaRelational:
			var r RelationalRecord
			if err = node.Decode(&r); err == nil {
				e, err = FromRelational(r)
			}
		case SchemaDocument:
			var d DocumentRecord
			if err = node.Decode(&d); err == nil {
				e, err = FromDocument(d)
			}
		default:
			err = fmt.Errorf("catalogmap: product %d (line %d): unknown schema %q", i, node.Line, head.Schema)
		}
		if err != nil {
			return nil, err
		}
		if seen[e.Product.ID] {
			return nil, fmt.Errorf("catalogmap: duplicate product id %s", e.Product.ID)
		}
		seen[e.Product.ID] = true
		entries = append(entries, e)
	}
	return entries, nil
}

func LoadSeed(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalogmap: read seed: %w", err)
	}
	return Parse(data)
}

// StockInitializer creates a ledger entry only when none exists.
type StockInitializer interface {
	InitStock(ctx context.Context, productID string, available int) (bool, error)
}

type ApplyResult struct {
	Products         int
	StockInitialized int
}

// Apply upserts every product and initialises stock for products that have
// no ledger entry yet. Existing stock is never overwritten.
func Apply(ctx context.Context, entries []Entry, products catalog.Writer, stock StockInitializer) (ApplyResult, error) {
	var res ApplyResult
	for _, e := range entries {
		if err := products.Upsert(ctx, e.Product); err != nil {
			return res, fmt.Errorf("catalogmap: upsert %s: %w", e.Product.ID, err)
		}
		res.Products++
		created, err := stock.InitStock(ctx, e.Product.ID, e.Stock)
		if err != nil {
			return res, fmt.Errorf("catalogmap: init stock %s: %w", e.Product.ID, err)
		}
		if created {
			res.StockInitialized++
		}
	}
	return res, nil
}
