package xmlrpc

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleStruct() *Struct {
	inner := NewStruct().
		Set("nested", Array{Int(1), String("two"), Boolean(true)}).
		Set("empty", Array{})
	return NewStruct().
		Set("title", String("Hello <world> & friends")).
		Set("count", Int(42)).
		Set("big", Int(1<<40)).
		Set("negative", Int(-7)).
		Set("flag", Boolean(false)).
		Set("when", NewDateTime(time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC))).
		Set("bits", Base64([]byte{0, 1, 2, 250, 255})).
		Set("categories", Strings([]string{"Go", "XML"})).
		Set("inner", inner)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	values := []Value{
		String(""),
		String("plain"),
		String("  spaced \n text  "),
		Boolean(true),
		Int(0),
		Int(-2147483648),
		Int(9007199254740993),
		NewDateTime(time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)),
		Base64(nil),
		Base64([]byte("binary\x00data")),
		Array{},
		Array{Array{Int(1)}, NewStruct()},
		NewStruct(),
		sampleStruct(),
	}

	for _, v := range values {
		data, err := Encode(v)
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", v.Kind(), err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("Decode(%s) failed: %v\n%s", v.Kind(), err, data)
		}
		if !Equal(v, got) {
			t.Errorf("round trip mismatch for %s:\n%s", v.Kind(), data)
		}
	}
}

func TestEncode_Int64UsesI8(t *testing.T) {
	data, err := Encode(Int(1 << 33))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<i8>8589934592</i8>") {
		t.Errorf("expected <i8>, got %s", data)
	}

	data, _ = Encode(Int(5))
	if !strings.Contains(string(data), "<int>5</int>") {
		t.Errorf("expected <int>, got %s", data)
	}
}

func TestEncode_DateTimeIsUTC(t *testing.T) {
	zone := time.FixedZone("plus2", 2*60*60)
	data, err := Encode(NewDateTime(time.Date(2024, 1, 1, 12, 0, 0, 0, zone)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "20240101T10:00:00") {
		t.Errorf("expected UTC timestamp, got %s", data)
	}
}

func TestEncode_Nil(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Error("expected error encoding nil value")
	}
	var s *Struct
	if _, err := Encode(s); err == nil {
		t.Error("expected error encoding nil struct")
	}
}

func TestDecode_AcceptedForms(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want Value
	}{
		{"untyped string", `<value>bare text</value>`, String("bare text")},
		{"i4", `<value><i4>12</i4></value>`, Int(12)},
		{"i8", `<value><i8>-9000000000</i8></value>`, Int(-9000000000)},
		{"padded int", `<value><int> 3 </int></value>`, Int(3)},
		{"boolean one", `<value><boolean>1</boolean></value>`, Boolean(true)},
		{"boolean zero", `<value><boolean>0</boolean></value>`, Boolean(false)},
		{"base64 with newlines", "<value><base64>aGVs\nbG8=</base64></value>", Base64("hello")},
		{"dashed date", `<value><dateTime.iso8601>2024-02-03T04:05:06</dateTime.iso8601></value>`,
			NewDateTime(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))},
		{"zulu date", `<value><dateTime.iso8601>20240203T04:05:06Z</dateTime.iso8601></value>`,
			NewDateTime(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))},
		{"whitespace between elements", "<value>\n  <array>\n   <data>\n    <value><int>1</int></value>\n   </data>\n  </array>\n</value>",
			Array{Int(1)}},
		{"escaped text", `<value><string>a &lt;b&gt; &amp; c</string></value>`, String("a <b> & c")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.xml))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !Equal(tt.want, got) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"bad int", `<value><int>twelve</int></value>`},
		{"int overflow", `<value><int>99999999999999999999</int></value>`},
		{"bad boolean", `<value><boolean>true</boolean></value>`},
		{"bad base64", `<value><base64>!!!</base64></value>`},
		{"bad date", `<value><dateTime.iso8601>yesterday</dateTime.iso8601></value>`},
		{"unknown tag", `<value><double>1.5</double></value>`},
		{"two typed children", `<value><int>1</int><int>2</int></value>`},
		{"text beside typed value", `<value><string>a</string>junk</value>`},
		{"cdata beside typed value", `<value><![CDATA[x]]><int>1</int></value>`},
		{"array without data", `<value><array></array></value>`},
		{"member without value", `<value><struct><member><name>a</name></member></struct></value>`},
		{"duplicate member", `<value><struct>` +
			`<member><name>a</name><value><int>1</int></value></member>` +
			`<member><name>a</name><value><int>2</int></value></member>` +
			`</struct></value>`},
		{"not a value", `<string>x</string>`},
		{"unterminated", `<value><string>x</value>`},
		{"empty document", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.xml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformedValue) {
				t.Errorf("expected ErrMalformedValue, got %v", err)
			}
		})
	}
}

func TestDecode_WhitespaceAroundTypedValue(t *testing.T) {
	v, err := Decode([]byte("<value>\n\t<string>a</string>\n</value>"))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if !Equal(v, String("a")) {
		t.Errorf("Decode() = %#v, want String(\"a\")", v)
	}
}

func TestStruct_SetReplacesInPlace(t *testing.T) {
	s := NewStruct().Set("a", Int(1)).Set("b", Int(2)).Set("a", Int(3))
	if s.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", s.Len())
	}
	members := s.Members()
	if members[0].Name != "a" || !Equal(members[0].Value, Int(3)) {
		t.Errorf("expected a=3 first, got %+v", members[0])
	}

	// Members returns a copy
	members[0].Name = "changed"
	if _, ok := s.Get("a"); !ok {
		t.Error("mutating Members() result changed the struct")
	}
}

func TestEqual(t *testing.T) {
	a := NewStruct().Set("x", Int(1)).Set("y", String("z"))
	b := NewStruct().Set("y", String("z")).Set("x", Int(1))
	if !Equal(a, b) {
		t.Error("member order should not matter")
	}
	if Equal(Int(1), String("1")) {
		t.Error("different kinds compared equal")
	}
	if Equal(Array{Int(1)}, Array{Int(1), Int(2)}) {
		t.Error("arrays of different length compared equal")
	}
	if !Equal(nil, nil) || Equal(nil, Int(0)) {
		t.Error("nil handling is wrong")
	}
}

func TestAccessors(t *testing.T) {
	s := sampleStruct()

	title, err := s.RequireString("title")
	if err != nil || title != "Hello <world> & friends" {
		t.Errorf("RequireString: %q, %v", title, err)
	}
	if n, err := s.RequireInt("count"); err != nil || n != 42 {
		t.Errorf("RequireInt: %d, %v", n, err)
	}
	if b, err := s.RequireBool("flag"); err != nil || b {
		t.Errorf("RequireBool: %v, %v", b, err)
	}
	if bits, err := s.RequireBase64("bits"); err != nil || len(bits) != 5 {
		t.Errorf("RequireBase64: %v, %v", bits, err)
	}
	if arr, err := s.RequireArray("categories"); err != nil || len(arr) != 2 {
		t.Errorf("RequireArray: %v, %v", arr, err)
	}
	if _, ok, err := s.LookupDateTime("when"); !ok || err != nil {
		t.Errorf("LookupDateTime: %v, %v", ok, err)
	}

	_, err = s.RequireString("missing")
	var fe *FieldError
	if !errors.As(err, &fe) || !errors.Is(err, ErrMissingField) || fe.Field != "missing" {
		t.Errorf("expected missing-field error, got %v", err)
	}

	_, err = s.RequireString("count")
	if !errors.Is(err, ErrWrongType) {
		t.Errorf("expected wrong-type error, got %v", err)
	}
	if errors.As(err, &fe) && (fe.Want != KindString || fe.Got != KindInt) {
		t.Errorf("unexpected kinds in %v", fe)
	}
}

func TestAccessors_Optional(t *testing.T) {
	s := NewStruct().Set("desc", String("body")).Set("cats", Int(1))

	if v, err := s.OptionalString("desc", "def"); err != nil || v != "body" {
		t.Errorf("present: %q, %v", v, err)
	}
	if v, err := s.OptionalString("absent", "def"); err != nil || v != "def" {
		t.Errorf("absent: %q, %v", v, err)
	}
	if _, err := s.OptionalArray("cats", nil); !errors.Is(err, ErrWrongType) {
		t.Errorf("expected wrong type, got %v", err)
	}
	if v, err := s.OptionalArray("none", Array{String("x")}); err != nil || len(v) != 1 {
		t.Errorf("default array: %v, %v", v, err)
	}

	var nilStruct *Struct
	if _, ok := nilStruct.Get("x"); ok {
		t.Error("nil struct should have no members")
	}
}
