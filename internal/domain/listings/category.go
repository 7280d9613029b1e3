package listings

import (
	"errors"
	"strings"
)

var ErrCategoryNotFound = errors.New("listings: category not found")

type CategoryID string

// CategoryKind selects the attribute schema for a category.
type CategoryKind string

const (
	KindElectronics CategoryKind = "electronics"
	KindClothing    CategoryKind = "clothing"
	KindBooks       CategoryKind = "books"
	KindFurniture   CategoryKind = "furniture"
	KindGeneral     CategoryKind = "general"
)

type Category struct {
	ID   CategoryID
	Name string
}

// Kind derives the schema discriminant from the category name.
func (c Category) Kind() CategoryKind {
	name := strings.ToLower(c.Name)
	switch {
	case strings.Contains(name, "electronics"):
		return KindElectronics
	case strings.Contains(name, "clothing"), strings.Contains(name, "fashion"):
		return KindClothing
	case strings.Contains(name, "book"):
		return KindBooks
	case strings.Contains(name, "furniture"):
		return KindFurniture
	default:
		return KindGeneral
	}
}

// Catalog is the fixed category list offered to sellers.
var Catalog = []Category{
	{ID: "electronics", Name: "Electronics"},
	{ID: "clothing", Name: "Clothing"},
	{ID: "books", Name: "Books"},
	{ID: "furniture", Name: "Furniture"},
	{ID: "others", Name: "Others"},
}

func CategoryByID(id string) (Category, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, c := range Catalog {
		if string(c.ID) == id {
			return c, nil
		}
	}
	return Category{}, ErrCategoryNotFound
}
