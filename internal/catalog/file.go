package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/utafrali/ecocart/internal/domain"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported catalog file %q: want .json, .yaml or .yml", path)
	}
}

// productRecord is the on-disk shape of a product. Prices are written as
// plain numbers, e.g. 4.99.
type productRecord struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Price       float64  `json:"price" yaml:"price"`
	Category    string   `json:"category" yaml:"category"`
	Badges      []string `json:"badges" yaml:"badges"`
	Image       string   `json:"image" yaml:"image"`
	Description string   `json:"description" yaml:"description"`
}

// Parse decodes a product list.
func Parse(data []byte, format Format) ([]domain.Product, error) {
	var records []productRecord
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &records)
	case FormatYAML:
		err = yaml.Unmarshal(data, &records)
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s catalog: %w", format, err)
	}

	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		products = append(products, domain.Product{
			ID:          r.ID,
			Name:        r.Name,
			Price:       decimal.NewFromFloat(r.Price),
			Category:    r.Category,
			Badges:      r.Badges,
			Image:       r.Image,
			Description: r.Description,
		})
	}
	return products, nil
}

// ReadFile parses the product file at path.
func ReadFile(path string) ([]domain.Product, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, format)
}

// Load builds a catalog from a file, or the built-in list when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	products, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := New(products)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Reload replaces the catalog contents with the file at path.
func (c *Catalog) Reload(path string) error {
	products, err := ReadFile(path)
	if err != nil {
		return err
	}
	return c.Replace(products)
}
