package dose

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Catalog is a fixed list of names known to affect INR.
type Catalog struct {
	Names []string
}

// Match returns every catalog name contained in text, in catalog order.
// Matching is a case-sensitive substring test.
func (c Catalog) Match(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, name := range c.Names {
		if name != "" && strings.Contains(text, name) {
			out = append(out, name)
		}
	}
	return out
}

// Has reports whether label is exactly one of the catalog names.
func (c Catalog) Has(label string) bool {
	for _, name := range c.Names {
		if name == label {
			return true
		}
	}
	return false
}

// Catalogs bundles the herb/supplement and interacting-drug lists.
type Catalogs struct {
	Supplements  Catalog
	Interactions Catalog
}

type catalogFile struct {
	Supplements  []string `yaml:"supplements"`
	Interactions []string `yaml:"interactions"`
}

// DefaultCatalogs returns the catalogs compiled into the binary.
func DefaultCatalogs() Catalogs {
	c, err := parseCatalogs(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalogs reads catalogs from a YAML file. An empty path yields the defaults.
func LoadCatalogs(path string) (Catalogs, error) {
	if path == "" {
		return DefaultCatalogs(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogs{}, fmt.Errorf("read catalog: %w", err)
	}
	return parseCatalogs(data)
}

func parseCatalogs(data []byte) (Catalogs, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Catalogs{}, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Supplements) == 0 || len(f.Interactions) == 0 {
		return Catalogs{}, fmt.Errorf("catalog must list supplements and interactions")
	}
	return Catalogs{
		Supplements:  Catalog{Names: trimAll(f.Supplements)},
		Interactions: Catalog{Names: trimAll(f.Interactions)},
	}, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NoneChoice is the quick-reply answer meaning "nothing taken".
const NoneChoice = "ไม่ได้ใช้"

// IsNone reports whether a supplement or drug answer means "none": empty or
// the explicit NoneChoice. Anything else typed is checked against the catalog.
func IsNone(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || t == NoneChoice
}
