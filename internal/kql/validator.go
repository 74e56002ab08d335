package kql

import (
	"fmt"
	"sort"
	"strings"
)

// AttrPrefix prefixes attribute fields, e.g. attr.team.
const AttrPrefix = "attr."

// ValidFields defines the fixed field names a filter may compare. Any field
// starting with AttrPrefix is valid as well.
var ValidFields = map[string]bool{
	"name":  true,
	"kind":  true,
	"id":    true,
	"label": true,
	"path":  true,
	"key":   true,

	"description": true,
}

// Validate validates a query and returns an error if invalid.
func Validate(query *Query) error {
	if err := validateSelectors(query.Selectors); err != nil {
		return err
	}
	for _, s := range query.Selectors {
		if s.Filter != nil {
			if err := validateExpr(s.Filter); err != nil {
				return err
			}
		}
	}
	if query.Filter != nil {
		return validateExpr(query.Filter)
	}
	return nil
}

func validateSelectors(selectors []Selector) error {
	seenCandidate := false
	for i, s := range selectors {
		switch {
		case s.Type == TokenOr:
			if !seenCandidate {
				return fmt.Errorf("'or' must follow a selector")
			}
			if next := nextCandidate(selectors[i+1:]); next == nil {
				return fmt.Errorf("'or' must be followed by a selector")
			}
		case s.Type.IsTerminal():
			if i != len(selectors)-1 {
				return fmt.Errorf("%q must be the last selector", strings.ToLower(s.Type.String()))
			}
		case s.Type.IsSelector():
			seenCandidate = true
		}
	}
	return nil
}

// nextCandidate returns the first selector that names a candidate set,
// skipping "in". Returns nil when another "or" or the end comes first.
func nextCandidate(selectors []Selector) *Selector {
	for i := range selectors {
		switch {
		case selectors[i].Type == TokenIn:
			continue
		case selectors[i].Type.IsSelector():
			return &selectors[i]
		}
		return nil
	}
	return nil
}

// validateExpr validates an expression recursively.
func validateExpr(expr Expr) error {
	switch e := expr.(type) {
	case *BinaryExpr:
		if err := validateExpr(e.Left); err != nil {
			return err
		}
		return validateExpr(e.Right)

	case *NotExpr:
		return validateExpr(e.Expr)

	case *CompareExpr:
		return validateField(e.Field)

	case *InExpr:
		return validateField(e.Field)
	}

	return nil
}

func validateField(field string) error {
	if ValidFields[field] {
		return nil
	}
	if strings.HasPrefix(field, AttrPrefix) && len(field) > len(AttrPrefix) {
		return nil
	}
	return fmt.Errorf("unknown field: %q (valid: %s, %s<key>)", field, validFieldNames(), AttrPrefix)
}

// validFieldNames returns a comma-separated list of valid field names.
func validFieldNames() string {
	names := make([]string, 0, len(ValidFields))
	for name := range ValidFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
