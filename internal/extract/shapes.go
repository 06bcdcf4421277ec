package extract

import (
	"slices"
	"strings"

	"github.com/jonathan/basket-scraper/internal/types"
)

// notAvailable marks a child-element field whose descendant was missing.
const notAvailable = "N/A"

// ShapeNames is the element and attribute vocabulary the shapes look for.
type ShapeNames struct {
	// RecordElements carry a record in the attribute-pair and child-elements shapes.
	RecordElements  []string `json:"record_elements,omitempty" yaml:"record_elements,omitempty"`
	DateAttributes  []string `json:"date_attributes,omitempty" yaml:"date_attributes,omitempty"`
	ValueAttributes []string `json:"value_attributes,omitempty" yaml:"value_attributes,omitempty"`
	DateElements    []string `json:"date_elements,omitempty" yaml:"date_elements,omitempty"`
	ValueElements   []string `json:"value_elements,omitempty" yaml:"value_elements,omitempty"`
	// DayElements carry a record whose only attribute name is the date.
	DayElements []string `json:"day_elements,omitempty" yaml:"day_elements,omitempty"`
}

// DefaultShapeNames returns the vocabulary of the published basket archive.
func DefaultShapeNames() ShapeNames {
	return ShapeNames{
		RecordElements:  []string{"BasketList", "Basket"},
		DateAttributes:  []string{"data", "date", "Date"},
		ValueAttributes: []string{"val", "value", "Value"},
		DateElements:    []string{"Date"},
		ValueElements:   []string{"Value"},
		DayElements:     []string{"Date", "BasketDay"},
	}
}

// withDefaults fills every empty list from DefaultShapeNames.
func (n ShapeNames) withDefaults() ShapeNames {
	d := DefaultShapeNames()
	fill := func(v, def []string) []string {
		if len(v) == 0 {
			return def
		}
		return v
	}
	return ShapeNames{
		RecordElements:  fill(n.RecordElements, d.RecordElements),
		DateAttributes:  fill(n.DateAttributes, d.DateAttributes),
		ValueAttributes: fill(n.ValueAttributes, d.ValueAttributes),
		DateElements:    fill(n.DateElements, d.DateElements),
		ValueElements:   fill(n.ValueElements, d.ValueElements),
		DayElements:     fill(n.DayElements, d.DayElements),
	}
}

// document is a parsed tree plus the namespace every element lookup is qualified with.
type document struct {
	root      *node
	namespace string
	currency  string
}

func (d *document) is(n *node, locals []string) bool {
	return n.name.Space == d.namespace && slices.Contains(locals, n.name.Local)
}

func (d *document) record(date, price string) types.PriceRecord {
	return types.PriceRecord{Date: date, Price: price, Currency: d.currency}
}

// shape is one record convention. attempt returns the valid records it found in document order.
type shape interface {
	kind() types.Shape
	attempt(doc *document) types.RecordBatch
}

// attributePair reads <BasketList data="2024-01-02" val="77.53"/>.
type attributePair struct {
	names ShapeNames
}

func (attributePair) kind() types.Shape { return types.ShapeAttributePair }

func (s attributePair) attempt(doc *document) types.RecordBatch {
	var out types.RecordBatch
	doc.root.walk(func(n *node) bool {
		if !doc.is(n, s.names.RecordElements) {
			return true
		}
		date, okDate := attrValue(n, s.names.DateAttributes)
		value, okValue := attrValue(n, s.names.ValueAttributes)
		if okDate && okValue {
			if r := doc.record(date, value); r.Valid() {
				out = append(out, r)
			}
		}
		return true
	})
	return out
}

// childElements reads <BasketList><Date>2024-01-02</Date><Value>77.53</Value></BasketList>.
type childElements struct {
	names ShapeNames
}

func (childElements) kind() types.Shape { return types.ShapeChildElements }

func (s childElements) attempt(doc *document) types.RecordBatch {
	var out types.RecordBatch
	doc.root.walk(func(n *node) bool {
		if !doc.is(n, s.names.RecordElements) {
			return true
		}
		date := descendantText(doc, n, s.names.DateElements)
		value := descendantText(doc, n, s.names.ValueElements)
		if date == notAvailable || value == notAvailable {
			return false
		}
		if r := doc.record(date, value); r.Valid() {
			out = append(out, r)
		}
		return false
	})
	return out
}

// attributeNameDate reads <Date 20230101="80.10"/>, falling back to the element text for the price.
type attributeNameDate struct {
	names ShapeNames
}

func (attributeNameDate) kind() types.Shape { return types.ShapeAttributeNameDate }

func (s attributeNameDate) attempt(doc *document) types.RecordBatch {
	var out types.RecordBatch
	doc.root.walk(func(n *node) bool {
		if !doc.is(n, s.names.DayElements) {
			return true
		}
		attrs := n.dataAttrs()
		if len(attrs) != 1 {
			return true
		}
		price := strings.TrimSpace(attrs[0].Value)
		if price == "" {
			price = n.ownText()
		}
		if r := doc.record(unescapeAttrName(attrs[0].Name.Local), price); r.Valid() {
			out = append(out, r)
		}
		return true
	})
	return out
}

func attrValue(n *node, locals []string) (string, bool) {
	for _, local := range locals {
		for _, a := range n.attrs {
			if a.Name.Space == "" && a.Name.Local == local {
				return strings.TrimSpace(a.Value), true
			}
		}
	}
	return "", false
}

// descendantText returns the text of the first descendant with one of the given names,
// or notAvailable when there is none.
func descendantText(doc *document, n *node, locals []string) string {
	var found *node
	for _, c := range n.children {
		c.walk(func(d *node) bool {
			if found != nil {
				return false
			}
			if doc.is(d, locals) {
				found = d
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	if found == nil {
		return notAvailable
	}
	return found.ownText()
}
