package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Conversion 值转换类型
type Conversion string

const (
	ConvertNone        Conversion = ""
	ConvertSlug        Conversion = "slug"
	ConvertCategory    Conversion = "category"
	ConvertPrice       Conversion = "price"
	ConvertNumber      Conversion = "number"
	ConvertBoolean     Conversion = "boolean"
	ConvertImage       Conversion = "image"
	ConvertFlatten     Conversion = "flatten"
	ConvertFlattenList Conversion = "flatten-list"
	ConvertNewlineList Conversion = "newline-list"
	ConvertText        Conversion = "text"
	ConvertList        Conversion = "list"
)

// Known 是否为已知的转换类型
func (c Conversion) Known() bool {
	switch c {
	case ConvertNone, ConvertSlug, ConvertCategory, ConvertPrice, ConvertNumber, ConvertBoolean,
		ConvertImage, ConvertFlatten, ConvertFlattenList, ConvertNewlineList, ConvertText, ConvertList:
		return true
	}
	return false
}

// Placement 值写入输出文档的方式
type Placement int

const (
	PlaceScalar Placement = iota
	PlaceFanOut
	PlaceAttribute
	PlaceArray
)

func (p Placement) String() string {
	switch p {
	case PlaceFanOut:
		return "fan-out"
	case PlaceAttribute:
		return "attribute"
	case PlaceArray:
		return "array"
	default:
		return "scalar"
	}
}

// rule.type 的取值
const (
	TypeArray = "array"
	TypeAttr  = "attr"
)

// Selector 单个路径或路径列表
// 列表形式即使只有一个元素也保持列表语义（src 拼接 / dest 扇出）
type Selector struct {
	paths []string
	list  bool
}

// One 单路径选择器
func One(path string) Selector {
	return Selector{paths: []string{path}}
}

// Many 列表选择器
func Many(paths ...string) Selector {
	return Selector{paths: append([]string{}, paths...), list: true}
}

// IsZero 未设置
func (s Selector) IsZero() bool {
	return !s.list && (len(s.paths) == 0 || s.paths[0] == "")
}

// IsList 是否为列表
func (s Selector) IsList() bool { return s.list }

// First 第一个路径
func (s Selector) First() string {
	if len(s.paths) == 0 {
		return ""
	}
	return s.paths[0]
}

// All 全部路径
func (s Selector) All() []string {
	return append([]string{}, s.paths...)
}

func (s Selector) MarshalJSON() ([]byte, error) {
	if s.list {
		return json.Marshal(s.paths)
	}
	return json.Marshal(s.First())
}

func (s *Selector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Selector{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var paths []string
		if err := json.Unmarshal(data, &paths); err != nil {
			return fmt.Errorf("invalid path list: %w", err)
		}
		*s = Many(paths...)
		return nil
	}
	var path string
	if err := json.Unmarshal(data, &path); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	*s = One(path)
	return nil
}

func (s Selector) MarshalYAML() (interface{}, error) {
	if s.list {
		return s.paths, nil
	}
	return s.First(), nil
}

func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var paths []string
		if err := node.Decode(&paths); err != nil {
			return fmt.Errorf("invalid path list: %w", err)
		}
		*s = Many(paths...)
	case yaml.ScalarNode:
		*s = One(node.Value)
	default:
		return fmt.Errorf("line %d: path must be a string or a list of strings", node.Line)
	}
	return nil
}

// LocaleEntry localeMap 中的一项：源字段后缀 -> 目标 locale
type LocaleEntry struct {
	Src  string `json:"src" yaml:"src"`
	Dest string `json:"dest" yaml:"dest"`
}

// Rule 字段映射规则
type Rule struct {
	Name      string        `json:"name,omitempty" yaml:"name,omitempty"`
	Src       Selector      `json:"src,omitempty" yaml:"src,omitempty"`
	Dest      Selector      `json:"dest,omitempty" yaml:"dest,omitempty"`
	Convert   Conversion    `json:"convert,omitempty" yaml:"convert,omitempty"`
	Type      string        `json:"type,omitempty" yaml:"type,omitempty"`
	Attr      bool          `json:"attr,omitempty" yaml:"attr,omitempty"`
	Locale    string        `json:"locale,omitempty" yaml:"locale,omitempty"`
	LocaleMap []LocaleEntry `json:"localeMap,omitempty" yaml:"localeMap,omitempty"`
	Concat    string        `json:"concat,omitempty" yaml:"concat,omitempty"`
	Channel   string        `json:"channel,omitempty" yaml:"channel,omitempty"`
	Country   string        `json:"country,omitempty" yaml:"country,omitempty"`
	Currency  string        `json:"currency,omitempty" yaml:"currency,omitempty"`
	Regex     string        `json:"regex,omitempty" yaml:"regex,omitempty"`
	Element   string        `json:"element,omitempty" yaml:"element,omitempty"` // list 转换时每个元素内的取值路径
	Debug     bool          `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Source 解析后的源，未设置 src 时回退到 name
func (r *Rule) Source() Selector {
	if !r.Src.IsZero() {
		return r.Src
	}
	return One(r.Name)
}

// Destination 解析后的目标，未设置 dest 时回退到 name
func (r *Rule) Destination() Selector {
	if !r.Dest.IsZero() {
		return r.Dest
	}
	return One(r.Name)
}

// Placement 计算生效的写入方式，不修改规则本身
func (r *Rule) Placement() Placement {
	switch {
	case r.Destination().IsList():
		return PlaceFanOut
	case r.isAttribute():
		return PlaceAttribute
	case r.Type == TypeArray, r.Convert == ConvertPrice:
		return PlaceArray
	default:
		return PlaceScalar
	}
}

// isAttribute attr: true 与 type: attr 等价
func (r *Rule) isAttribute() bool {
	return r.Attr || r.Type == TypeAttr
}

// expandLocales 将 localeMap 展开为每个 locale 一条子规则
func (r *Rule) expandLocales() []Rule {
	base := r.Source().First()
	children := make([]Rule, 0, len(r.LocaleMap))
	for _, entry := range r.LocaleMap {
		children = append(children, Rule{
			Src:    One(base + "." + entry.Src),
			Dest:   r.Destination(),
			Attr:   r.isAttribute(),
			Locale: entry.Dest,
		})
	}
	return children
}
