package soap

import (
	"encoding/xml"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/natserract/aukro/pkg/aukro"
)

const arrayItem = "item"

// requestBody encodes a parameter map as a document/literal request element.
// Keys are written in sorted order, nested maps become nested elements,
// slices become repeated <item> elements and nil values are left out.
type requestBody struct {
	name   xml.Name
	params aukro.Request
}

func newRequestBody(namespace, procedure string) requestBody {
	return requestBody{name: xml.Name{Space: namespace, Local: requestElement(procedure)}}
}

// requestElement returns the request element name, e.g. doLoginEnc -> DoLoginEncRequest
func requestElement(procedure string) string {
	r, size := utf8.DecodeRuneInString(procedure)
	return string(unicode.ToUpper(r)) + procedure[size:] + "Request"
}

func (r requestBody) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: r.name}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeFields(e, r.params); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

func encodeFields(e *xml.Encoder, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := encodeValue(e, k, fields[k]); err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
	}
	return nil
}

func encodeValue(e *xml.Encoder, name string, value any) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return e.EncodeElement(v, start)
	case []byte:
		return e.EncodeElement(string(v), start)
	case bool:
		return e.EncodeElement(strconv.FormatBool(v), start)
	case aukro.Request:
		return encodeNested(e, start, v)
	case map[string]any:
		return encodeNested(e, start, v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if err := e.EncodeToken(start); err != nil {
			return err
		}
		for i := 0; i < rv.Len(); i++ {
			if err := encodeValue(e, arrayItem, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return e.EncodeToken(start.End())
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return encodeValue(e, name, rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported parameter type %T: map keys must be strings", value)
		}
		fields := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = iter.Value().Interface()
		}
		return encodeNested(e, start, fields)
	case reflect.Struct, reflect.Func, reflect.Chan:
		return fmt.Errorf("unsupported parameter type %T", value)
	default:
		return e.EncodeElement(fmt.Sprint(value), start)
	}
}

func encodeNested(e *xml.Encoder, start xml.StartElement, fields map[string]any) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeFields(e, fields); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// responseBody decodes any response element into a generic tree
type responseBody struct {
	value any
}

func (r *responseBody) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	v, err := decodeElement(d, start)
	if err != nil {
		return err
	}
	r.value = v
	return nil
}

// response returns the decoded tree. A response element holding a plain value is exposed under "return".
func (r *responseBody) response() aukro.Response {
	switch v := r.value.(type) {
	case nil:
		return aukro.Response{}
	case map[string]any:
		return aukro.Response(v)
	default:
		return aukro.Response{"return": v}
	}
}

type element struct {
	name  string
	value any
}

func decodeElement(d *xml.Decoder, start xml.StartElement) (any, error) {
	var text strings.Builder
	var children []element

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, fmt.Errorf("decode XML response: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			v, err := decodeElement(d, t)
			if err != nil {
				return nil, err
			}
			children = append(children, element{name: t.Name.Local, value: v})
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return getValue(start, strings.TrimSpace(text.String()), children), nil
		}
	}
}

func getValue(start xml.StartElement, text string, children []element) any {
	xsiType := ""
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "nil":
			if v, _ := strconv.ParseBool(attr.Value); v {
				return nil
			}
		case "type":
			xsiType = attr.Value
		}
	}

	switch {
	case len(children) == 0 && isArrayType(xsiType):
		return []any{}
	case len(children) == 0:
		return leafValue(xsiType, text)
	case isArray(xsiType, children):
		v := make([]any, 0, len(children))
		for _, c := range children {
			v = append(v, c.value)
		}
		return v
	default:
		v := map[string]any{}
		for _, c := range children {
			existing, ok := v[c.name]
			if !ok {
				v[c.name] = c.value
				continue
			}
			if list, isList := existing.(repeated); isList {
				v[c.name] = append(list, c.value)
			} else {
				v[c.name] = repeated{existing, c.value}
			}
		}
		for k, val := range v {
			if list, isList := val.(repeated); isList {
				v[k] = []any(list)
			}
		}
		return v
	}
}

// repeated marks values collected from sibling elements sharing a name
type repeated []any

func isArray(xsiType string, children []element) bool {
	if isArrayType(xsiType) {
		return true
	}
	for _, c := range children {
		if c.name != arrayItem {
			return false
		}
	}
	return true
}

// isArrayType matches SOAP-ENC:Array and WSDL list types such as ArrayOfLong
func isArrayType(xsiType string) bool {
	if i := strings.IndexByte(xsiType, ':'); i >= 0 {
		xsiType = xsiType[i+1:]
	}
	return xsiType == "Array" || strings.HasPrefix(xsiType, "ArrayOf")
}

func leafValue(xsiType, text string) any {
	if i := strings.IndexByte(xsiType, ':'); i >= 0 {
		xsiType = xsiType[i+1:]
	}

	switch xsiType {
	case "int", "long", "short", "integer", "byte":
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v
		}
	case "float", "double", "decimal":
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(text); err == nil {
			return v
		}
	}
	return text
}
