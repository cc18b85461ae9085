package domain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Modulus is the size of the range random words are reduced to before
// selecting a category.
const Modulus uint64 = 100

type CategoryId uint8

const (
	CategoryHajduk CategoryId = iota
	CategoryDinamo
	CategoryRijeka
	CategoryOsijek
)

type Category struct {
	Id   CategoryId
	Name string
}

func (c Category) String() string {
	return c.Name
}

// CategoryBound assigns the half-open bucket [previous bound, Bound) to
// Category.
type CategoryBound struct {
	Category Category
	Bound    uint64
}

// CategoryTable is an ordered table of cumulative bucket bounds partitioning
// [0, modulus).
type CategoryTable struct {
	modulus uint64
	bounds  []CategoryBound
}

func NewCategoryTable(modulus uint64, bounds []CategoryBound) (*CategoryTable, error) {
	if modulus == 0 {
		return nil, fmt.Errorf("modulus must be greater than zero")
	}
	if len(bounds) == 0 {
		return nil, fmt.Errorf("missing category bounds")
	}

	names := make(map[string]struct{})
	ids := make(map[CategoryId]struct{})
	var prev uint64
	for i, b := range bounds {
		if len(b.Category.Name) == 0 {
			return nil, fmt.Errorf("missing name for category at position %d", i)
		}
		if _, ok := names[b.Category.Name]; ok {
			return nil, fmt.Errorf("duplicated category %s", b.Category.Name)
		}
		if _, ok := ids[b.Category.Id]; ok {
			return nil, fmt.Errorf("duplicated category id %d", b.Category.Id)
		}
		if b.Bound <= prev {
			return nil, fmt.Errorf(
				"bound %d of category %s must be greater than %d",
				b.Bound, b.Category.Name, prev,
			)
		}
		names[b.Category.Name] = struct{}{}
		ids[b.Category.Id] = struct{}{}
		prev = b.Bound
	}
	if prev != modulus {
		return nil, fmt.Errorf("last bound %d must be equal to modulus %d", prev, modulus)
	}

	return &CategoryTable{
		modulus: modulus,
		bounds:  append([]CategoryBound{}, bounds...),
	}, nil
}

// DefaultCategoryTable weights the four clubs 10/30/30/30.
func DefaultCategoryTable() *CategoryTable {
	table, _ := NewCategoryTable(Modulus, []CategoryBound{
		{Category{CategoryHajduk, "HAJDUK"}, 10},
		{Category{CategoryDinamo, "DINAMO"}, 40},
		{Category{CategoryRijeka, "RIJEKA"}, 70},
		{Category{CategoryOsijek, "OSIJEK"}, 100},
	})
	return table
}

// ParseCategoryTable parses a comma separated list of NAME:BOUND entries.
// Category ids follow the declaration order.
func ParseCategoryTable(modulus uint64, str string) (*CategoryTable, error) {
	entries := strings.Split(str, ",")
	bounds := make([]CategoryBound, 0, len(entries))
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		name, boundStr, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid category entry %q, must be in form NAME:BOUND", entry)
		}
		bound, err := strconv.ParseUint(strings.TrimSpace(boundStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bound for category %s: %s", name, err)
		}
		bounds = append(bounds, CategoryBound{
			Category: Category{
				Id:   CategoryId(i),
				Name: strings.ToUpper(strings.TrimSpace(name)),
			},
			Bound: bound,
		})
	}
	return NewCategoryTable(modulus, bounds)
}

func (t *CategoryTable) Modulus() uint64 {
	return t.modulus
}

// Select returns the category whose bucket contains moddedRng.
func (t *CategoryTable) Select(moddedRng uint64) (Category, error) {
	if moddedRng >= t.modulus {
		return Category{}, ErrOutOfRange
	}
	for _, b := range t.bounds {
		if moddedRng < b.Bound {
			return b.Category, nil
		}
	}
	return Category{}, ErrOutOfRange
}

// SelectFromWord reduces a raw random word modulo the table's modulus and
// selects the matching category.
func (t *CategoryTable) SelectFromWord(word *big.Int) (Category, error) {
	if word == nil || word.Sign() < 0 {
		return Category{}, fmt.Errorf("random word must be a non negative integer")
	}
	moddedRng := new(big.Int).Mod(word, new(big.Int).SetUint64(t.modulus))
	return t.Select(moddedRng.Uint64())
}

func (t *CategoryTable) Categories() []Category {
	categories := make([]Category, 0, len(t.bounds))
	for _, b := range t.bounds {
		categories = append(categories, b.Category)
	}
	return categories
}

func (t *CategoryTable) Bounds() []CategoryBound {
	return append([]CategoryBound{}, t.bounds...)
}

func (t *CategoryTable) ById(id CategoryId) (Category, bool) {
	for _, b := range t.bounds {
		if b.Category.Id == id {
			return b.Category, true
		}
	}
	return Category{}, false
}

func (t *CategoryTable) ByName(name string) (Category, bool) {
	for _, b := range t.bounds {
		if strings.EqualFold(b.Category.Name, name) {
			return b.Category, true
		}
	}
	return Category{}, false
}

func (t *CategoryTable) String() string {
	entries := make([]string, 0, len(t.bounds))
	for _, b := range t.bounds {
		entries = append(entries, fmt.Sprintf("%s:%d", b.Category.Name, b.Bound))
	}
	return strings.Join(entries, ",")
}
