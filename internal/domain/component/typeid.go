package component

import (
	"path"
	"reflect"
	"strings"
)

// TypeID identifies a component type. It stands in for a reflected type handle
// and is compared by value.
type TypeID string

// String returns the string representation of the TypeID.
func (id TypeID) String() string {
	return string(id)
}

// IsValid returns true if the TypeID is non-empty.
func (id TypeID) IsValid() bool {
	return strings.TrimSpace(string(id)) != ""
}

// ShortName returns the last dotted segment of the TypeID.
// Example: "sample.GameModule" -> "GameModule"
func (id TypeID) ShortName() string {
	s := string(id)
	if i := strings.LastIndex(s, "."); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	return s
}

// TypeOf derives the TypeID of T as "{package}.{Type}", where package is the last
// element of the import path. Pointer types resolve to their element type so that
// TypeOf[*GameModule]() == TypeOf[GameModule]().
func TypeOf[T any]() TypeID {
	return typeIDFor(reflect.TypeFor[T]())
}

// TypeIDOf derives the TypeID of a value's dynamic type.
// Returns an empty TypeID for nil.
func TypeIDOf(v any) TypeID {
	if v == nil {
		return ""
	}
	return typeIDFor(reflect.TypeOf(v))
}

func typeIDFor(t reflect.Type) TypeID {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return TypeID(t.String())
	}
	return TypeID(path.Base(t.PkgPath()) + "." + t.Name())
}
