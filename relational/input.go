package relational

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// InputKind tags how an Input matches candidates.
type InputKind int

const (
	InputGuard     InputKind = iota // TypeGuard.Is decides
	InputEqual                      // structural equality
	InputIdentity                   // same node
	InputType                       // candidate implements or is a type
	InputPredicate                  // plain predicate
)

func (k InputKind) String() string {
	switch k {
	case InputGuard:
		return "guard"
	case InputEqual:
		return "equal"
	case InputIdentity:
		return "identity"
	case InputType:
		return "type"
	case InputPredicate:
		return "predicate"
	default:
		return "unknown"
	}
}

// TypeGuard is implemented by values that decide membership of a category
// of nodes, such as a kind registry or a capability check.
type TypeGuard interface {
	Is(Node) bool
}

// Comparable is implemented by nodes with structural equality.
type Comparable interface {
	Equal(Node) bool
}

// Namer is implemented by values that have a display name. Names label
// inputs in query descriptions and assert errors.
type Namer interface {
	Name() string
}

// Input is a normalized query input: how it matches plus a display name.
// Build one with Value, Like, Type, Where or Named. The zero Input matches
// everything.
type Input struct {
	kind  InputKind
	name  string
	match Predicate
}

// Kind returns how the input matches.
func (i Input) Kind() InputKind { return i.kind }

// Name returns the display name, possibly empty.
func (i Input) Name() string { return i.name }

// Match reports whether n satisfies the input.
func (i Input) Match(n Node) bool {
	if i.match == nil {
		return true
	}
	return i.match(n)
}

// Value normalizes a concrete value:
//   - a TypeGuard matches through Is, even when it is also a Node;
//   - a Node matches by Equal if it is Comparable, otherwise by identity;
//   - a Predicate or func(Node) bool is used as is;
//   - anything else matches by identity.
func Value(v any) Input {
	switch t := v.(type) {
	case nil:
		return Input{kind: InputIdentity, match: func(Node) bool { return false }}
	case Input:
		return t
	case TypeGuard:
		if isNil(t) {
			return Input{kind: InputGuard, match: func(Node) bool { return false }}
		}
		return Input{kind: InputGuard, name: nameOf(v), match: t.Is}
	case Node:
		if isNil(t) {
			return Input{kind: InputIdentity, match: func(Node) bool { return false }}
		}
		if c, ok := t.(Comparable); ok {
			return Input{kind: InputEqual, name: nameOf(v), match: c.Equal}
		}
		self := t.Relations()
		return Input{kind: InputIdentity, name: nameOf(v), match: func(n Node) bool {
			return n.Relations() == self
		}}
	case Predicate:
		return Input{kind: InputPredicate, name: funcName(t), match: t}
	case func(Node) bool:
		return Input{kind: InputPredicate, name: funcName(t), match: t}
	}

	canCompare := reflect.TypeOf(v).Comparable()
	return Input{kind: InputIdentity, name: nameOf(v), match: func(n Node) bool {
		return canCompare && any(n) == v
	}}
}

// Values normalizes each value with Value.
func Values(values ...any) []Input {
	inputs := make([]Input, len(values))
	for i, v := range values {
		inputs[i] = Value(v)
	}
	return inputs
}

// Like matches candidates structurally equal to v, using go-cmp. Tree
// linkage held by the embedded Relational is ignored, unexported fields of
// host types are compared.
func Like(v any, opts ...cmp.Option) Input {
	options := append([]cmp.Option{
		cmpopts.IgnoreTypes(Relational{}),
		cmp.Exporter(func(reflect.Type) bool { return true }),
	}, opts...)
	return Input{kind: InputEqual, name: nameOf(v), match: func(n Node) bool {
		return cmp.Equal(v, n, options...)
	}}
}

// Type matches candidates whose dynamic type is, or implements, T. With an
// interface T this is a capability check: hosts match without sharing any
// base type.
func Type[T any]() Input {
	return Input{kind: InputType, name: typeName(reflect.TypeFor[T]()), match: func(n Node) bool {
		_, ok := any(n).(T)
		return ok
	}}
}

// Where wraps a predicate. The function's name labels the input; anonymous
// functions are unlabeled.
func Where(fn func(Node) bool) Input {
	return Input{kind: InputPredicate, name: funcName(fn), match: fn}
}

// Named wraps a predicate under an explicit label.
func Named(name string, fn func(Node) bool) Input {
	return Input{kind: InputPredicate, name: name, match: fn}
}

// Not negates an input.
func Not(in Input) Input {
	return Input{kind: in.kind, name: in.name, match: func(n Node) bool { return !in.Match(n) }}
}

// ToPredicate combines inputs with AND. No inputs accept every candidate.
func ToPredicate(inputs ...Input) Predicate {
	switch len(inputs) {
	case 0:
		return pass
	case 1:
		return inputs[0].Match
	}
	return func(n Node) bool {
		for _, in := range inputs {
			if !in.Match(n) {
				return false
			}
		}
		return true
	}
}

// PredicateName joins the labels of inputs with "&". A leading "is" is
// dropped so guards named isPerson read as Person.
func PredicateName(inputs ...Input) string {
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		name := strings.TrimPrefix(in.name, "is")
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "&")
}

func nameOf(v any) string {
	if n, ok := v.(Namer); ok {
		return n.Name()
	}
	return ""
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

var anonymousFunc = regexp.MustCompile(`(^|\.)func\d+`)

// funcName derives a label from a function symbol: pkg.isMom -> isMom,
// (*T).Is-fm -> Is. Closures yield "".
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}

	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if anonymousFunc.MatchString(name) {
		return ""
	}
	name = strings.TrimSuffix(name, "-fm")
	name = strings.TrimSuffix(name, "[...]")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
