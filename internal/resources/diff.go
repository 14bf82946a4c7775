package resources

import (
	"fmt"
	"reflect"
)

// Diff 计算把 from 变成 to 所需的更新动作
// 字段类型变更和删除枚举值不支持，只返回提示
func Diff(from, to Type) ([]UpdateAction, []string) {
	var (
		actions  []UpdateAction
		warnings []string
	)

	if !reflect.DeepEqual(from.Name, to.Name) {
		actions = append(actions, UpdateAction{"action": "changeName", "name": to.Name})
	}

	oldFields := make(map[string]FieldDefinition, len(from.FieldDefinitions))
	for _, fd := range from.FieldDefinitions {
		oldFields[fd.Name] = fd
	}
	newFields := make(map[string]bool, len(to.FieldDefinitions))

	for _, fd := range to.FieldDefinitions {
		newFields[fd.Name] = true
		oldFD, ok := oldFields[fd.Name]
		if !ok {
			actions = append(actions, UpdateAction{"action": "addFieldDefinition", "fieldDefinition": fd})
			continue
		}
		a, w := diffField(oldFD, fd)
		actions = append(actions, a...)
		warnings = append(warnings, w...)
	}

	for _, fd := range from.FieldDefinitions {
		if !newFields[fd.Name] {
			actions = append(actions, UpdateAction{"action": "removeFieldDefinition", "fieldName": fd.Name})
		}
	}
	return actions, warnings
}

func diffField(from, to FieldDefinition) ([]UpdateAction, []string) {
	if from.Type.Name != to.Type.Name {
		return nil, []string{fmt.Sprintf("field %s: type change from %s to %s", from.Name, from.Type.Name, to.Type.Name)}
	}
	if from.Type.Name == "Set" {
		if from.Type.ElementType == nil || to.Type.ElementType == nil {
			return nil, nil
		}
		if from.Type.ElementType.Name != to.Type.ElementType.Name {
			return nil, []string{fmt.Sprintf("field %s: set element type change from %s to %s",
				from.Name, from.Type.ElementType.Name, to.Type.ElementType.Name)}
		}
		return diffEnum(from.Name, *from.Type.ElementType, *to.Type.ElementType)
	}
	return diffEnum(from.Name, from.Type, to.Type)
}

func diffEnum(fieldName string, from, to FieldType) ([]UpdateAction, []string) {
	if from.Name != "Enum" && from.Name != "LocalizedEnum" {
		return nil, nil
	}

	var (
		actions  []UpdateAction
		warnings []string
	)
	oldValues := make(map[string]EnumValue, len(from.Values))
	for _, v := range from.Values {
		oldValues[v.Key] = v
	}
	newKeys := make(map[string]bool, len(to.Values))

	for _, v := range to.Values {
		newKeys[v.Key] = true
		oldValue, ok := oldValues[v.Key]
		switch {
		case !ok:
			actions = append(actions, UpdateAction{"action": "add" + from.Name + "Value", "fieldName": fieldName, "value": v})
		case !reflect.DeepEqual(oldValue.Label, v.Label):
			actions = append(actions, UpdateAction{"action": "change" + from.Name + "ValueLabel", "fieldName": fieldName, "value": v})
		}
	}
	for _, v := range from.Values {
		if !newKeys[v.Key] {
			warnings = append(warnings, fmt.Sprintf("field %s: removing enum value %s is not supported", fieldName, v.Key))
		}
	}
	return actions, warnings
}
