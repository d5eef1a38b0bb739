package compat

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the variant held by an AttributeValue.
type Kind int

const (
	KindNone Kind = iota
	KindTagSet
	KindScalar
	KindCategory
	KindGroup
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindTagSet:
		return "tag_set"
	case KindScalar:
		return "scalar"
	case KindCategory:
		return "category"
	case KindGroup:
		return "group"
	default:
		return "none"
	}
}

// AttributeValue is a tagged union over the value shapes a profile dimension
// can take: a set of string tags, a non-negative scalar, a categorical label,
// or a group of named nested values. The zero value is the absent attribute.
type AttributeValue struct {
	kind     Kind
	tags     []string
	scalar   float64
	category string
	group    map[string]AttributeValue
}

// TagSet builds a tag-set attribute. Order is irrelevant and duplicates
// collapse when the value is compared.
func TagSet(tags ...string) AttributeValue {
	return AttributeValue{kind: KindTagSet, tags: tags}
}

// Scalar builds a numeric attribute.
func Scalar(v float64) AttributeValue {
	return AttributeValue{kind: KindScalar, scalar: v}
}

// Category builds a single-label categorical attribute.
func Category(label string) AttributeValue {
	return AttributeValue{kind: KindCategory, category: label}
}

// Group builds a nested attribute group keyed by name.
func Group(members map[string]AttributeValue) AttributeValue {
	return AttributeValue{kind: KindGroup, group: members}
}

// Kind reports which variant the value holds.
func (v AttributeValue) Kind() Kind { return v.kind }

// IsZero reports whether the value is the absent attribute.
func (v AttributeValue) IsZero() bool { return v.kind == KindNone }

// Tags returns the tag slice for tag-set values, nil otherwise.
func (v AttributeValue) Tags() []string {
	if v.kind != KindTagSet {
		return nil
	}
	return v.tags
}

// ScalarValue returns the numeric value for scalar attributes, 0 otherwise.
func (v AttributeValue) ScalarValue() float64 {
	if v.kind != KindScalar {
		return 0
	}
	return v.scalar
}

// CategoryValue returns the label for categorical attributes, "" otherwise.
func (v AttributeValue) CategoryValue() string {
	if v.kind != KindCategory {
		return ""
	}
	return v.category
}

// GroupValue returns the member map for group attributes, nil otherwise.
func (v AttributeValue) GroupValue() map[string]AttributeValue {
	if v.kind != KindGroup {
		return nil
	}
	return v.group
}

// MarshalJSON encodes the value in its natural JSON shape: tag sets as
// arrays, scalars as numbers, categories as strings, groups as objects and
// the absent attribute as null.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindTagSet:
		if v.tags == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.tags)
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindCategory:
		return json.Marshal(v.category)
	case KindGroup:
		if v.group == nil {
			return json.Marshal(map[string]AttributeValue{})
		}
		return json.Marshal(v.group)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a value from its natural JSON shape by inspecting
// the leading token. Shapes that fit none of the variants (booleans, negative
// scalars encoded as strings, etc.) are rejected at the boundary so the
// scoring code only ever sees tagged values.
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	trimmed := trimLeadingSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty attribute value")
	}

	switch trimmed[0] {
	case 'n':
		*v = AttributeValue{}
		return nil
	case '[':
		var tags []string
		if err := json.Unmarshal(data, &tags); err != nil {
			return fmt.Errorf("tag set must be an array of strings: %w", err)
		}
		*v = TagSet(tags...)
		return nil
	case '"':
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*v = Category(label)
		return nil
	case '{':
		var members map[string]AttributeValue
		if err := json.Unmarshal(data, &members); err != nil {
			return err
		}
		*v = Group(members)
		return nil
	case 't', 'f':
		return fmt.Errorf("attribute value cannot be a boolean")
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("scalar attribute must be a number: %w", err)
		}
		*v = Scalar(n)
		return nil
	}
}

func trimLeadingSpace(data []byte) []byte {
	for i, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return data[i:]
		}
	}
	return nil
}
