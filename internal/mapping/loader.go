package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleSet 规则文件的顶层结构
type RuleSet struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// ParseRules 解析 YAML 或 JSON 格式的规则
// 既支持顶层为规则数组，也支持 {rules: [...]} 形式
func ParseRules(data []byte) ([]Rule, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var rules []Rule
		if err := root.Decode(&rules); err != nil {
			return nil, fmt.Errorf("failed to decode rules: %w", err)
		}
		return rules, nil
	case yaml.MappingNode:
		var set RuleSet
		if err := root.Decode(&set); err != nil {
			return nil, fmt.Errorf("failed to decode rule set: %w", err)
		}
		return set.Rules, nil
	}
	return nil, fmt.Errorf("rules must be a list or a mapping with a 'rules' key")
}

// LoadRules 从文件加载规则
func LoadRules(filename string) ([]Rule, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return rules, nil
}
