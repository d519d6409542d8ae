package soap

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/natserract/aukro/pkg/aukro"
)

func TestRequestElement(t *testing.T) {
	assert.Equal(t, "DoLoginEncRequest", requestElement("doLoginEnc"))
	assert.Equal(t, "DoGetSellFormFieldsExtRequest", requestElement("doGetSellFormFieldsExt"))
}

func TestRequestBodyMarshal(t *testing.T) {
	body := newRequestBody("urn:x", "doFoo")
	body.params = aukro.Request{
		"b":      2,
		"a":      "x<y",
		"list":   []any{1, "two"},
		"ids":    []int64{7},
		"nested": map[string]any{"c": true},
		"skip":   nil,
	}

	out, err := xml.Marshal(body)
	require.NoError(t, err)
	assert.Equal(t,
		`<DoFooRequest xmlns="urn:x">`+
			`<a>x&lt;y</a>`+
			`<b>2</b>`+
			`<ids><item>7</item></ids>`+
			`<list><item>1</item><item>two</item></list>`+
			`<nested><c>true</c></nested>`+
			`</DoFooRequest>`,
		string(out))
}

func TestRequestBodyMarshal_NestedMaps(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{
			name:  "string map",
			value: map[string]string{"b": "2", "a": "1"},
			want:  `<filter><a>1</a><b>2</b></filter>`,
		},
		{
			name:  "decoded response",
			value: aukro.Response{"ids": []any{"7"}, "name": "x"},
			want:  `<filter><ids><item>7</item></ids><name>x</name></filter>`,
		},
		{
			name:  "nested request",
			value: aukro.Request{"limit": 10},
			want:  `<filter><limit>10</limit></filter>`,
		},
		{
			name:  "int map",
			value: map[string]int{"limit": 5},
			want:  `<filter><limit>5</limit></filter>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := newRequestBody("urn:x", "doFoo")
			body.params = aukro.Request{"filter": tt.value}

			out, err := xml.Marshal(body)
			require.NoError(t, err)
			assert.Equal(t, `<DoFooRequest xmlns="urn:x">`+tt.want+`</DoFooRequest>`, string(out))
		})
	}
}

func TestRequestBodyMarshal_Unsupported(t *testing.T) {
	for _, value := range []any{
		struct{ A int }{A: 1},
		map[int]string{1: "a"},
		make(chan int),
	} {
		body := newRequestBody("urn:x", "doFoo")
		body.params = aukro.Request{"bad": value}

		_, err := xml.Marshal(body)
		assert.Error(t, err, "%T", value)
	}
}

func TestResponseBodyUnmarshal(t *testing.T) {
	data := `<doGetFooResponse xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <count xsi:type="xsd:int">3</count>
  <price xsi:type="xsd:float">1.5</price>
  <active xsi:type="xsd:boolean">true</active>
  <name> Foo </name>
  <missing xsi:nil="true"/>
  <items><item><id>1</id></item><item><id>2</id></item></items>
  <single><item>only</item></single>
  <tag>a</tag>
  <tag>b</tag>
  <empty/>
  <none xsi:type="SOAP-ENC:Array"/>
  <ids xsi:type="ns1:ArrayOfLong"/>
</doGetFooResponse>`

	var body responseBody
	require.NoError(t, xml.Unmarshal([]byte(data), &body))

	assert.Equal(t, aukro.Response{
		"count":   int64(3),
		"price":   1.5,
		"active":  true,
		"name":    "Foo",
		"missing": nil,
		"items": []any{
			map[string]any{"id": "1"},
			map[string]any{"id": "2"},
		},
		"single": []any{"only"},
		"tag":    []any{"a", "b"},
		"empty":  "",
		"none":   []any{},
		"ids":    []any{},
	}, body.response())
}

func TestResponseBodyUnmarshal_PlainValue(t *testing.T) {
	var body responseBody
	require.NoError(t, xml.Unmarshal([]byte(`<doPingResponse>pong</doPingResponse>`), &body))
	assert.Equal(t, aukro.Response{"return": "pong"}, body.response())

	var empty responseBody
	assert.Equal(t, aukro.Response{}, empty.response())
}
