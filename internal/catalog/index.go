package catalog

import (
	"strings"

	"excel2web/internal/util"
)

// Index is the run-scoped reference built from master-data workbooks.
// It is never mutated after BuildIndex returns, so concurrent readers are safe.
type Index struct {
	NameToPrice map[string]string
	CodeToPrice map[string]string

	normalize func(string) string
}

func NewIndex(normalize func(string) string) *Index {
	if normalize == nil {
		normalize = util.NormalizeName
	}
	return &Index{
		NameToPrice: map[string]string{},
		CodeToPrice: map[string]string{},
		normalize:   normalize,
	}
}

type Entry struct {
	Name  string
	Code  string
	Price string
}

// IndexFromEntries applies the same first-wins rule as BuildIndex.
func IndexFromEntries(normalize func(string) string, entries ...Entry) *Index {
	idx := NewIndex(normalize)
	for _, e := range entries {
		price := strings.TrimSpace(e.Price)
		if price == "" {
			continue
		}
		idx.addName(e.Name, price)
		idx.addCode(e.Code, price)
	}
	return idx
}

// LookupName normalizes name with the same function used at build time.
func (idx *Index) LookupName(name string) (string, bool) {
	if idx == nil {
		return "", false
	}
	key := idx.normalize(name)
	if key == "" {
		return "", false
	}
	price, ok := idx.NameToPrice[key]
	return price, ok
}

// LookupCode matches the trimmed code exactly; codes are not normalized.
func (idx *Index) LookupCode(code string) (string, bool) {
	if idx == nil {
		return "", false
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	price, ok := idx.CodeToPrice[code]
	return price, ok
}

func (idx *Index) Len() (names, codes int) {
	if idx == nil {
		return 0, 0
	}
	return len(idx.NameToPrice), len(idx.CodeToPrice)
}

// addName keeps the first value seen for a key.
func (idx *Index) addName(name, price string) bool {
	key := idx.normalize(name)
	if key == "" {
		return false
	}
	if _, ok := idx.NameToPrice[key]; ok {
		return false
	}
	idx.NameToPrice[key] = price
	return true
}

func (idx *Index) addCode(code, price string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	if _, ok := idx.CodeToPrice[code]; ok {
		return false
	}
	idx.CodeToPrice[code] = price
	return true
}
