package form

import (
	"strconv"
	"strings"
)

// ListSeparator joins list answers wherever they are rendered as one string.
const ListSeparator = ", "

// Kind tags the variant held by a [Value].
type Kind int

const (
	KindNone Kind = iota
	KindText
	KindNumber
	KindList
)

// Value is an answer: nothing, a string, a number or an ordered list of strings.
//
// The fields are exported so that values survive gob encoding of the wizard session. Use the constructors instead of
// composite literals.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	List   []string
}

func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func Number(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// List keeps order and duplicates of items.
func List(items []string) Value {
	return Value{Kind: KindList, List: append([]string(nil), items...)}
}

// IsSet reports whether the value holds anything, including an empty string or list.
func (v Value) IsSet() bool {
	return v.Kind != KindNone
}

// String renders the value the way it is compared by conditionals and written to exports. Numbers use the shortest
// decimal form and lists are joined with [ListSeparator].
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindList:
		return strings.Join(v.List, ListSeparator)
	case KindNone:
		return ""
	}
	return ""
}

// Contains reports whether a list value holds item or a scalar value equals it.
func (v Value) Contains(item string) bool {
	if v.Kind != KindList {
		return v.IsSet() && v.String() == item
	}
	for _, s := range v.List {
		if s == item {
			return true
		}
	}
	return false
}
