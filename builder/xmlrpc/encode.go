package xmlrpc

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/csantero/MetaWeblogPortable/builder/utils"
)

// Encode renders a single value as a standalone <value> element
func Encode(v Value) ([]byte, error) {
	buf := utils.SharedBufferPool.Get()
	defer utils.SharedBufferPool.Put(buf)

	if err := writeValue(buf, v); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	buf.WriteString("<value>")
	switch t := v.(type) {
	case String:
		buf.WriteString("<string>")
		if err := xml.EscapeText(buf, []byte(t)); err != nil {
			return err
		}
		buf.WriteString("</string>")
	case Boolean:
		if t {
			buf.WriteString("<boolean>1</boolean>")
		} else {
			buf.WriteString("<boolean>0</boolean>")
		}
	case Int:
		tag := "int"
		if t > math.MaxInt32 || t < math.MinInt32 {
			tag = "i8"
		}
		fmt.Fprintf(buf, "<%s>%s</%s>", tag, strconv.FormatInt(int64(t), 10), tag)
	case DateTime:
		buf.WriteString("<dateTime.iso8601>")
		buf.WriteString(t.UTC().Format(DateTimeLayout))
		buf.WriteString("</dateTime.iso8601>")
	case Base64:
		buf.WriteString("<base64>")
		buf.WriteString(base64.StdEncoding.EncodeToString(t))
		buf.WriteString("</base64>")
	case Array:
		buf.WriteString("<array><data>")
		for _, item := range t {
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteString("</data></array>")
	case *Struct:
		if t == nil {
			return errors.New("xmlrpc: cannot encode nil struct")
		}
		buf.WriteString("<struct>")
		for _, m := range t.members {
			buf.WriteString("<member><name>")
			if err := xml.EscapeText(buf, []byte(m.Name)); err != nil {
				return err
			}
			buf.WriteString("</name>")
			if err := writeValue(buf, m.Value); err != nil {
				return fmt.Errorf("member %q: %w", m.Name, err)
			}
			buf.WriteString("</member>")
		}
		buf.WriteString("</struct>")
	case nil:
		return errors.New("xmlrpc: cannot encode nil value")
	default:
		return fmt.Errorf("xmlrpc: unsupported value type %T", v)
	}
	buf.WriteString("</value>")
	return nil
}
