// Package seed holds the demo catalog and demo accounts shipped with the
// storefront.
package seed

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/vin-devs/learnsite/models"
)

//go:embed seed.yaml
var raw []byte

// DemoUser is a seeded account. Password is plain text in the seed file and
// hashed on import.
type DemoUser struct {
	Name      string   `yaml:"name"`
	Email     string   `yaml:"email"`
	Password  string   `yaml:"password"`
	Avatar    string   `yaml:"avatar"`
	Purchases []string `yaml:"purchases"`
}

type Dataset struct {
	Categories []models.Category `yaml:"categories"`
	Courses    []models.Product  `yaml:"courses"`
	Books      []models.Product  `yaml:"books"`
	Users      []DemoUser        `yaml:"users"`
}

// Load parses the embedded dataset.
func Load() (*Dataset, error) {
	return Parse(raw)
}

// Parse decodes a dataset and stamps kinds and catalog positions.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	for i := range ds.Courses {
		ds.Courses[i].Kind = models.KindCourse
	}
	for i := range ds.Books {
		ds.Books[i].Kind = models.KindBook
	}
	for i, p := range ds.Products() {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed product %d: %w", i, err)
		}
	}
	return &ds, nil
}

// Products returns courses followed by books, positioned in that order.
func (ds *Dataset) Products() []models.Product {
	out := make([]models.Product, 0, len(ds.Courses)+len(ds.Books))
	out = append(out, ds.Courses...)
	out = append(out, ds.Books...)
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
