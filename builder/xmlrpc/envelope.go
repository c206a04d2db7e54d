package xmlrpc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/csantero/MetaWeblogPortable/builder/utils"
)

const header = `<?xml version="1.0"?>` + "\n"

// Call is a decoded methodCall
type Call struct {
	Method string
	Params []Value
}

// Response is a decoded methodResponse. Exactly one of Params or Fault is set.
type Response struct {
	Params []Value
	Fault  *Fault
}

// ParseCall decodes a methodCall document
func ParseCall(data []byte) (*Call, error) {
	root, err := parseTree(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCall, err)
	}
	if root.name != "methodCall" {
		return nil, fmt.Errorf("%w: root element is <%s>", ErrMalformedCall, root.name)
	}

	nameNode := root.child("methodName")
	if nameNode == nil {
		return nil, fmt.Errorf("%w: missing <methodName>", ErrMalformedCall)
	}
	method := strings.TrimSpace(nameNode.text.String())
	if method == "" {
		return nil, fmt.Errorf("%w: empty <methodName>", ErrMalformedCall)
	}

	call := &Call{Method: method}
	if paramsNode := root.child("params"); paramsNode != nil {
		call.Params, err = decodeParams(paramsNode)
		if err != nil {
			return nil, err
		}
	}
	return call, nil
}

func decodeParams(n *node) ([]Value, error) {
	params := make([]Value, 0, len(n.children))
	for i, p := range n.children {
		if p.name != "param" || len(p.children) != 1 {
			return nil, malformed("param %d: expected <param> with one <value>", i)
		}
		v, err := decodeValue(p.children[0])
		if err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		params = append(params, v)
	}
	return params, nil
}

// ParseResponse decodes a methodResponse document
func ParseResponse(data []byte) (*Response, error) {
	root, err := parseTree(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCall, err)
	}
	if root.name != "methodResponse" {
		return nil, fmt.Errorf("%w: root element is <%s>", ErrMalformedCall, root.name)
	}

	if faultNode := root.child("fault"); faultNode != nil {
		if len(faultNode.children) != 1 {
			return nil, malformed("<fault> must hold one <value>")
		}
		v, err := decodeValue(faultNode.children[0])
		if err != nil {
			return nil, err
		}
		s, ok := v.(*Struct)
		if !ok {
			return nil, malformed("fault value is %s, want struct", v.Kind())
		}
		code, err := s.RequireInt("faultCode")
		if err != nil {
			return nil, err
		}
		msg, err := s.RequireString("faultString")
		if err != nil {
			return nil, err
		}
		return &Response{Fault: &Fault{Code: int(code), Message: msg}}, nil
	}

	resp := &Response{}
	if paramsNode := root.child("params"); paramsNode != nil {
		resp.Params, err = decodeParams(paramsNode)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// EncodeCall renders a methodCall document
func EncodeCall(method string, params ...Value) ([]byte, error) {
	buf := utils.SharedBufferPool.Get()
	defer utils.SharedBufferPool.Put(buf)

	buf.WriteString(header)
	buf.WriteString("<methodCall><methodName>")
	if err := xml.EscapeText(buf, []byte(method)); err != nil {
		return nil, err
	}
	buf.WriteString("</methodName>")
	if err := writeParams(buf, params); err != nil {
		return nil, err
	}
	buf.WriteString("</methodCall>")
	return bytes.Clone(buf.Bytes()), nil
}

// EncodeResult wraps values in a successful methodResponse
func EncodeResult(values ...Value) ([]byte, error) {
	buf := utils.SharedBufferPool.Get()
	defer utils.SharedBufferPool.Put(buf)

	buf.WriteString(header)
	buf.WriteString("<methodResponse>")
	if err := writeParams(buf, values); err != nil {
		return nil, err
	}
	buf.WriteString("</methodResponse>")
	return bytes.Clone(buf.Bytes()), nil
}

// EncodeFault renders a fault methodResponse
func EncodeFault(code int, message string) ([]byte, error) {
	buf := utils.SharedBufferPool.Get()
	defer utils.SharedBufferPool.Put(buf)

	fault := NewStruct().
		Set("faultCode", Int(code)).
		Set("faultString", String(message))

	buf.WriteString(header)
	buf.WriteString("<methodResponse><fault>")
	if err := writeValue(buf, fault); err != nil {
		return nil, err
	}
	buf.WriteString("</fault></methodResponse>")
	return bytes.Clone(buf.Bytes()), nil
}

func writeParams(buf *bytes.Buffer, values []Value) error {
	buf.WriteString("<params>")
	for i, v := range values {
		buf.WriteString("<param>")
		if err := writeValue(buf, v); err != nil {
			return fmt.Errorf("param %d: %w", i, err)
		}
		buf.WriteString("</param>")
	}
	buf.WriteString("</params>")
	return nil
}
