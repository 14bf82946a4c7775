package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_PreservesOrder(t *testing.T) {
	d := NewDocument()
	d.Set("z", 1)
	d.Set("a", 2)
	d.Set("m", 3)
	d.Set("z", 4)

	assert.Equal(t, []string{"z", "a", "m"}, d.Keys())
	assert.Equal(t, `{"z":4,"a":2,"m":3}`, mustJSON(t, d))

	d.Delete("a")
	assert.Equal(t, `{"z":4,"m":3}`, mustJSON(t, d))
	assert.False(t, d.Has("a"))
}

func TestDocument_UnmarshalKeepsOrder(t *testing.T) {
	raw := `{"b":1,"a":{"y":true,"x":null},"c":[{"k":"v"},2]}`
	var d Document
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	assert.Equal(t, []string{"b", "a", "c"}, d.Keys())
	assert.Equal(t, raw, mustJSON(t, &d))

	nested, _ := d.Get("a")
	require.IsType(t, &Document{}, nested)
	assert.Equal(t, []string{"y", "x"}, nested.(*Document).Keys())
}

func TestDocument_UnmarshalRejectsNonObject(t *testing.T) {
	var d Document
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &d))
}

func TestDocument_Map(t *testing.T) {
	d := NewDocument()
	d.Set("prices", []any{&Price{Value: Money{CurrencyCode: "USD", CentAmount: 100}}})
	d.Set("attributes", []*Attribute{{Name: "color", Value: "red"}})

	m, err := d.Map()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"prices":     []any{map[string]any{"value": map[string]any{"currencyCode": "USD", "centAmount": float64(100)}}},
		"attributes": []any{map[string]any{"name": "color", "value": "red"}},
	}, m)
}

func TestDecodeDocuments(t *testing.T) {
	docs, err := DecodeDocuments([]byte(`[{"b":1,"a":2},{"c":3}]`))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, []string{"b", "a"}, docs[0].Keys())
}

func TestAddVariantToProduct(t *testing.T) {
	p := NewDocument()
	AddVariantToProduct(map[string]any{"sku": "A"}, p)
	AddVariantToProduct(map[string]any{"sku": "B"}, p)
	AddVariantToProduct(map[string]any{"sku": "C"}, p)

	assert.Equal(t, `{"masterVariant":{"sku":"A"},"variants":[{"sku":"B"},{"sku":"C"}]}`, mustJSON(t, p))
}
