package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func enumField(name, typeName string, values ...EnumValue) FieldDefinition {
	return FieldDefinition{Name: name, Type: FieldType{Name: typeName, Values: values}}
}

func TestDiff(t *testing.T) {
	base := Type{
		Key:  "order-extras",
		Name: LocalizedString{"en": "Order extras"},
		FieldDefinitions: []FieldDefinition{
			{Name: "note", Type: FieldType{Name: "String"}},
			enumField("size", "Enum", EnumValue{Key: "s", Label: "Small"}),
			enumField("color", "LocalizedEnum", EnumValue{Key: "red", Label: map[string]any{"en": "Red"}}),
			{Name: "tags", Type: FieldType{Name: "Set", ElementType: &FieldType{Name: "Enum", Values: []EnumValue{{Key: "a", Label: "A"}}}}},
		},
	}

	tests := []struct {
		name         string
		mutate       func(*Type)
		wantActions  []string
		wantWarnings int
	}{
		{
			name:   "no changes",
			mutate: func(*Type) {},
		},
		{
			name:        "name change",
			mutate:      func(tp *Type) { tp.Name = LocalizedString{"en": "Extras"} },
			wantActions: []string{"changeName"},
		},
		{
			name: "field added and removed",
			mutate: func(tp *Type) {
				tp.FieldDefinitions = append(tp.FieldDefinitions[1:], FieldDefinition{Name: "gift", Type: FieldType{Name: "Boolean"}})
			},
			wantActions: []string{"addFieldDefinition", "removeFieldDefinition"},
		},
		{
			name: "field type change is refused",
			mutate: func(tp *Type) {
				tp.FieldDefinitions[0] = FieldDefinition{Name: "note", Type: FieldType{Name: "Number"}}
			},
			wantWarnings: 1,
		},
		{
			name: "enum value added and label changed",
			mutate: func(tp *Type) {
				tp.FieldDefinitions[1] = enumField("size", "Enum",
					EnumValue{Key: "s", Label: "S"},
					EnumValue{Key: "m", Label: "Medium"})
			},
			wantActions: []string{"changeEnumValueLabel", "addEnumValue"},
		},
		{
			name: "localized enum label changed",
			mutate: func(tp *Type) {
				tp.FieldDefinitions[2] = enumField("color", "LocalizedEnum",
					EnumValue{Key: "red", Label: map[string]any{"en": "Red", "de": "Rot"}})
			},
			wantActions: []string{"changeLocalizedEnumValueLabel"},
		},
		{
			name: "set of enum gains a value",
			mutate: func(tp *Type) {
				tp.FieldDefinitions[3] = FieldDefinition{Name: "tags", Type: FieldType{Name: "Set", ElementType: &FieldType{
					Name:   "Enum",
					Values: []EnumValue{{Key: "a", Label: "A"}, {Key: "b", Label: "B"}},
				}}}
			},
			wantActions: []string{"addEnumValue"},
		},
		{
			name: "removed enum value only warns",
			mutate: func(tp *Type) {
				tp.FieldDefinitions[1] = enumField("size", "Enum")
			},
			wantWarnings: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			next.FieldDefinitions = append([]FieldDefinition(nil), base.FieldDefinitions...)
			tt.mutate(&next)

			actions, warnings := Diff(base, next)
			var names []string
			for _, a := range actions {
				names = append(names, a["action"].(string))
			}
			assert.Equal(t, tt.wantActions, names)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestDiff_ActionPayload(t *testing.T) {
	from := Type{FieldDefinitions: []FieldDefinition{enumField("size", "Enum")}}
	to := Type{FieldDefinitions: []FieldDefinition{enumField("size", "Enum", EnumValue{Key: "xl", Label: "XL"})}}

	actions, _ := Diff(from, to)
	assert.Equal(t, []UpdateAction{{
		"action":    "addEnumValue",
		"fieldName": "size",
		"value":     EnumValue{Key: "xl", Label: "XL"},
	}}, actions)
}
