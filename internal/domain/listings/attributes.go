package listings

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownAttribute = errors.New("listings: attribute not allowed for category")

// Attributes is a closed set of per-category schemas. Values are trimmed and
// empty values are treated as absent.
type Attributes interface {
	Kind() CategoryKind
	Value(key string) string
	Fields() map[string]string
	slots() map[string]*string
}

type CommonAttributes struct {
	Brand string
	Model string
	Color string
	Year  string
}

func (c *CommonAttributes) slots() map[string]*string {
	return map[string]*string{"brand": &c.Brand, "model": &c.Model, "color": &c.Color, "year": &c.Year}
}

type ElectronicsAttributes struct {
	CommonAttributes
	Storage    string
	RAM        string
	Processor  string
	ScreenSize string
	Battery    string
	Warranty   string
}

func (a *ElectronicsAttributes) Kind() CategoryKind { return KindElectronics }
func (a *ElectronicsAttributes) slots() map[string]*string {
	return with(a.CommonAttributes.slots(), map[string]*string{
		"storage": &a.Storage, "ram": &a.RAM, "processor": &a.Processor,
		"screen_size": &a.ScreenSize, "battery": &a.Battery, "warranty": &a.Warranty,
	})
}
func (a *ElectronicsAttributes) Value(key string) string   { return value(a, key) }
func (a *ElectronicsAttributes) Fields() map[string]string { return fields(a) }

type ClothingAttributes struct {
	CommonAttributes
	Fabric   string
	FitType  string
	Gender   string
	Size     string
	Material string
}

func (a *ClothingAttributes) Kind() CategoryKind { return KindClothing }
func (a *ClothingAttributes) slots() map[string]*string {
	return with(a.CommonAttributes.slots(), map[string]*string{
		"fabric": &a.Fabric, "fit_type": &a.FitType, "gender": &a.Gender, "size": &a.Size, "material": &a.Material,
	})
}
func (a *ClothingAttributes) Value(key string) string   { return value(a, key) }
func (a *ClothingAttributes) Fields() map[string]string { return fields(a) }

type BookAttributes struct {
	CommonAttributes
	Author    string
	ISBN      string
	Publisher string
	Edition   string
	Language  string
}

func (a *BookAttributes) Kind() CategoryKind { return KindBooks }
func (a *BookAttributes) slots() map[string]*string {
	return with(a.CommonAttributes.slots(), map[string]*string{
		"author": &a.Author, "isbn": &a.ISBN, "publisher": &a.Publisher, "edition": &a.Edition, "language": &a.Language,
	})
}
func (a *BookAttributes) Value(key string) string   { return value(a, key) }
func (a *BookAttributes) Fields() map[string]string { return fields(a) }

type FurnitureAttributes struct {
	CommonAttributes
	Material         string
	Dimensions       string
	AssemblyRequired string
	Weight           string
}

func (a *FurnitureAttributes) Kind() CategoryKind { return KindFurniture }
func (a *FurnitureAttributes) slots() map[string]*string {
	return with(a.CommonAttributes.slots(), map[string]*string{
		"material": &a.Material, "dimensions": &a.Dimensions, "assembly_required": &a.AssemblyRequired, "weight": &a.Weight,
	})
}
func (a *FurnitureAttributes) Value(key string) string   { return value(a, key) }
func (a *FurnitureAttributes) Fields() map[string]string { return fields(a) }

// GeneralAttributes is the fallback schema for categories without their own.
type GeneralAttributes struct {
	CommonAttributes
	Size       string
	Material   string
	Weight     string
	Dimensions string
	Warranty   string
}

func (a *GeneralAttributes) Kind() CategoryKind { return KindGeneral }
func (a *GeneralAttributes) slots() map[string]*string {
	return with(a.CommonAttributes.slots(), map[string]*string{
		"size": &a.Size, "material": &a.Material, "weight": &a.Weight, "dimensions": &a.Dimensions, "warranty": &a.Warranty,
	})
}
func (a *GeneralAttributes) Value(key string) string   { return value(a, key) }
func (a *GeneralAttributes) Fields() map[string]string { return fields(a) }

// NewAttributes returns an empty schema for kind.
func NewAttributes(kind CategoryKind) Attributes {
	switch kind {
	case KindElectronics:
		return &ElectronicsAttributes{}
	case KindClothing:
		return &ClothingAttributes{}
	case KindBooks:
		return &BookAttributes{}
	case KindFurniture:
		return &FurnitureAttributes{}
	default:
		return &GeneralAttributes{}
	}
}

// ParseAttributes validates raw against the schema for kind.
func ParseAttributes(kind CategoryKind, raw map[string]string) (Attributes, error) {
	attrs := NewAttributes(kind)
	slots := attrs.slots()
	for key, val := range raw {
		norm := strings.ToLower(strings.TrimSpace(key))
		slot, ok := slots[norm]
		if !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnknownAttribute, key, attrs.Kind())
		}
		*slot = strings.TrimSpace(val)
	}
	return attrs, nil
}

// AllowedKeys lists the schema keys for kind in sorted order.
func AllowedKeys(kind CategoryKind) []string {
	slots := NewAttributes(kind).slots()
	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func value(a Attributes, key string) string {
	if slot, ok := a.slots()[key]; ok {
		return *slot
	}
	return ""
}

func fields(a Attributes) map[string]string {
	out := make(map[string]string)
	for k, slot := range a.slots() {
		if *slot != "" {
			out[k] = *slot
		}
	}
	return out
}

func with(base, extra map[string]*string) map[string]*string {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
