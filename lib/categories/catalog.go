// Package categories holds the income and expense categories a user can pick from.
package categories

import (
	"fmt"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/onkernel/finbot/lib/ledger"
	"github.com/samber/lo"
)

var (
	DefaultIncome  = []string{"Зарплата", "Подарок", "Прочее"}
	DefaultExpense = []string{"Еда", "Транспорт", "Прочее"}
)

// Catalog is an immutable set of categories per transaction kind.
type Catalog struct {
	income  []string
	expense []string
}

// fileFormat is the YAML layout of a catalog file. An omitted list keeps its default.
type fileFormat struct {
	Income  []string `json:"income,omitempty"`
	Expense []string `json:"expense,omitempty"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		income:  append([]string(nil), DefaultIncome...),
		expense: append([]string(nil), DefaultExpense...),
	}
}

// New builds a catalog from explicit lists.
func New(income, expense []string) (*Catalog, error) {
	in, err := normalize("income", income)
	if err != nil {
		return nil, err
	}
	ex, err := normalize("expense", expense)
	if err != nil {
		return nil, err
	}
	return &Catalog{income: in, expense: ex}, nil
}

// Load reads a catalog from a YAML file. An empty path returns the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	income := lo.Ternary(f.Income == nil, DefaultIncome, f.Income)
	expense := lo.Ternary(f.Expense == nil, DefaultExpense, f.Expense)
	return New(income, expense)
}

// For returns the categories of a kind in display order.
func (c *Catalog) For(kind ledger.Kind) []string {
	switch kind {
	case ledger.KindIncome:
		return append([]string(nil), c.income...)
	case ledger.KindExpense:
		return append([]string(nil), c.expense...)
	default:
		return nil
	}
}

// Resolve maps user input to the canonical category name.
// Matching ignores surrounding whitespace and letter case.
func (c *Catalog) Resolve(kind ledger.Kind, input string) (string, error) {
	needle := strings.TrimSpace(input)
	match, ok := lo.Find(c.For(kind), func(name string) bool {
		return strings.EqualFold(name, needle)
	})
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, needle)
	}
	return match, nil
}

func normalize(kind string, names []string) ([]string, error) {
	out := lo.Map(names, func(name string, _ int) string {
		return strings.TrimSpace(name)
	})
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s list is empty", ErrInvalidCatalog, kind)
	}
	if lo.Contains(out, "") {
		return nil, fmt.Errorf("%w: %s list has an empty name", ErrInvalidCatalog, kind)
	}

	lowered := lo.Map(out, func(name string, _ int) string { return strings.ToLower(name) })
	if dups := lo.FindDuplicates(lowered); len(dups) > 0 {
		return nil, fmt.Errorf("%w: duplicate %s category %q", ErrInvalidCatalog, kind, dups[0])
	}
	return out, nil
}
