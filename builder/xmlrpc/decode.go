package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
)

// DateTimeLayout is the canonical XML-RPC dateTime.iso8601 form
const DateTimeLayout = "20060102T15:04:05"

// accepted on decode in addition to DateTimeLayout
var altDateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"20060102T15:04:05Z",
	"20060102T15:04:05Z07:00",
}

// node is a minimal element tree; XML-RPC documents carry no attributes
type node struct {
	name     string
	text     strings.Builder
	children []*node
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// charsetReader converts documents that declare a non UTF-8 encoding.
// Labels without a decoder are read as UTF-8, which is what clients that
// mislabel ASCII payloads expect.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		return input, nil
	}
	return enc.NewDecoder().Reader(input), nil
}

// parseTree reads a whole document into a node tree
func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	var (
		root  *node
		stack []*node
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local}
			switch {
			case len(stack) > 0:
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			case root == nil:
				root = n
			default:
				return nil, errors.New("multiple root elements")
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, errors.New("text outside root element")
			}
		}
	}
	if root == nil {
		return nil, errors.New("empty document")
	}
	return root, nil
}

// Decode parses a standalone <value> document
func Decode(data []byte) (Value, error) {
	root, err := parseTree(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	return decodeValue(root)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedValue, fmt.Sprintf(format, args...))
}

func decodeValue(n *node) (Value, error) {
	if n.name != "value" {
		return nil, malformed("expected <value>, got <%s>", n.name)
	}
	switch len(n.children) {
	case 0:
		// untyped content defaults to string
		return String(n.text.String()), nil
	case 1:
		if strings.TrimSpace(n.text.String()) != "" {
			return nil, malformed("<value> mixes text with <%s>", n.children[0].name)
		}
		return decodeTyped(n.children[0])
	default:
		return nil, malformed("<value> holds %d typed elements", len(n.children))
	}
}

func decodeTyped(n *node) (Value, error) {
	switch n.name {
	case "array":
		return decodeArray(n)
	case "struct":
		return decodeStruct(n)
	}

	if len(n.children) > 0 {
		return nil, malformed("<%s> must not contain elements", n.name)
	}
	text := n.text.String()

	switch n.name {
	case "string":
		return String(text), nil
	case "boolean":
		switch strings.TrimSpace(text) {
		case "0":
			return Boolean(false), nil
		case "1":
			return Boolean(true), nil
		}
		return nil, malformed("<boolean> content %q", text)
	case "int", "i4", "i8":
		i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, malformed("<%s> content %q", n.name, text)
		}
		return Int(i), nil
	case "dateTime.iso8601":
		t, err := parseDateTime(strings.TrimSpace(text))
		if err != nil {
			return nil, malformed("<dateTime.iso8601> content %q", text)
		}
		return DateTime{Time: t}, nil
	case "base64":
		data, err := base64.StdEncoding.DecodeString(stripSpace(text))
		if err != nil {
			return nil, malformed("<base64> content: %v", err)
		}
		return Base64(data), nil
	}
	return nil, malformed("unknown tag <%s>", n.name)
}

func decodeArray(n *node) (Value, error) {
	if len(n.children) != 1 || n.children[0].name != "data" {
		return nil, malformed("<array> must hold exactly one <data>")
	}
	data := n.children[0]
	arr := make(Array, 0, len(data.children))
	for _, c := range data.children {
		v, err := decodeValue(c)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

func decodeStruct(n *node) (Value, error) {
	s := NewStruct()
	for _, m := range n.children {
		if m.name != "member" {
			return nil, malformed("<struct> holds <%s>", m.name)
		}
		nameNode := m.child("name")
		valueNode := m.child("value")
		if nameNode == nil || valueNode == nil || len(m.children) != 2 {
			return nil, malformed("<member> needs one <name> and one <value>")
		}
		name := nameNode.text.String()
		if _, dup := s.Get(name); dup {
			return nil, malformed("duplicate struct member %q", name)
		}
		v, err := decodeValue(valueNode)
		if err != nil {
			return nil, err
		}
		s.Set(name, v)
	}
	return s, nil
}

func parseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range altDateTimeLayouts {
		if alt, altErr := time.Parse(layout, s); altErr == nil {
			return alt, nil
		}
	}
	return time.Time{}, err
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
