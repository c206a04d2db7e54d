// Package xmlrpc implements the XML-RPC wire format used by the MetaWeblog API:
// a closed set of typed values plus the methodCall / methodResponse envelopes.
package xmlrpc

import (
	"bytes"
	"fmt"
	"time"
)

// Kind identifies which member of the value set a Value is
type Kind int

const (
	KindString Kind = iota
	KindBoolean
	KindInt
	KindDateTime
	KindBase64
	KindArray
	KindStruct
)

var kindNames = [...]string{
	KindString:   "string",
	KindBoolean:  "boolean",
	KindInt:      "int",
	KindDateTime: "dateTime.iso8601",
	KindBase64:   "base64",
	KindArray:    "array",
	KindStruct:   "struct",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Value is a typed XML-RPC value. The set of implementations is closed:
// String, Boolean, Int, DateTime, Base64, Array and *Struct.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	String  string
	Boolean bool
	Int     int64
	Base64  []byte
	Array   []Value
)

// DateTime carries a timestamp. The wire form has second precision and no zone.
type DateTime struct {
	time.Time
}

// NewDateTime truncates t to the precision the wire format can carry
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.Truncate(time.Second)}
}

func (String) Kind() Kind   { return KindString }
func (Boolean) Kind() Kind  { return KindBoolean }
func (Int) Kind() Kind      { return KindInt }
func (DateTime) Kind() Kind { return KindDateTime }
func (Base64) Kind() Kind   { return KindBase64 }
func (Array) Kind() Kind    { return KindArray }
func (*Struct) Kind() Kind  { return KindStruct }

func (String) isValue()   {}
func (Boolean) isValue()  {}
func (Int) isValue()      {}
func (DateTime) isValue() {}
func (Base64) isValue()   {}
func (Array) isValue()    {}
func (*Struct) isValue()  {}

// Member is a single named field of a Struct
type Member struct {
	Name  string
	Value Value
}

// Struct is an ordered set of uniquely named members
type Struct struct {
	members []Member
	index   map[string]int
}

// NewStruct creates an empty struct
func NewStruct() *Struct {
	return &Struct{index: make(map[string]int)}
}

// Set adds a member, replacing the value in place if the name already exists.
// It returns the struct so calls can be chained.
func (s *Struct) Set(name string, v Value) *Struct {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[name]; ok {
		s.members[i].Value = v
		return s
	}
	s.index[name] = len(s.members)
	s.members = append(s.members, Member{Name: name, Value: v})
	return s
}

// Get looks up a member by name
func (s *Struct) Get(name string) (Value, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.members[i].Value, true
}

// Len returns the number of members
func (s *Struct) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Members returns the members in insertion order
func (s *Struct) Members() []Member {
	if s == nil {
		return nil
	}
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}

// Equal reports whether two values are semantically equal. Struct members are
// compared by name, so member order does not matter.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case String:
		return av == b.(String)
	case Boolean:
		return av == b.(Boolean)
	case Int:
		return av == b.(Int)
	case DateTime:
		return av.Truncate(time.Second).Equal(b.(DateTime).Truncate(time.Second))
	case Base64:
		return bytes.Equal(av, b.(Base64))
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Struct:
		bv := b.(*Struct)
		if av.Len() != bv.Len() {
			return false
		}
		for _, m := range av.Members() {
			other, ok := bv.Get(m.Name)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

// Strings converts a slice of Go strings into an Array of String values
func Strings(items []string) Array {
	arr := make(Array, 0, len(items))
	for _, s := range items {
		arr = append(arr, String(s))
	}
	return arr
}
