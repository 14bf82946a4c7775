package mapping

import (
	"reflect"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// AttributesKey 输出文档中属性列表的键
const AttributesKey = "attributes"

// Attribute 具名属性，Value 可以是本地化的 *Document
type Attribute struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Options 映射选项
type Options struct {
	Debug  bool
	Logger *zap.Logger
}

// Mapper 编译后的规则集：路径与正则只解析一次，可在多条记录间复用
// 由调用方持有，不在包级别缓存任何东西
type Mapper struct {
	rules []compiledRule
	opts  Options
}

// compiledRule 规则及其预解析的源路径与正则
type compiledRule struct {
	rule     *Rule
	srcs     []source
	element  source
	re       *regexp.Regexp
	reErr    error
	children []compiledRule // localeMap 展开后的子规则
}

// NewMapper 编译规则，rules 会被复制
func NewMapper(rules []Rule, opts Options) *Mapper {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	owned := append([]Rule(nil), rules...)
	return &Mapper{rules: compileRules(owned), opts: opts}
}

func compileRules(rules []Rule) []compiledRule {
	out := make([]compiledRule, len(rules))
	for i := range rules {
		out[i] = compileRule(&rules[i])
	}
	return out
}

func compileRule(r *Rule) compiledRule {
	c := compiledRule{rule: r}
	if len(r.LocaleMap) > 0 {
		c.children = compileRules(r.expandLocales())
		return c
	}
	for _, p := range r.Source().All() {
		c.srcs = append(c.srcs, newSource(p))
	}
	if r.Element != "" {
		c.element = newSource(r.Element)
	}
	if r.Regex != "" {
		c.re, c.reErr = regexp.Compile(r.Regex)
	}
	return c
}

// MapFields 按顺序将每条规则应用到 input 上，原地修改 output
func (m *Mapper) MapFields(input any, output *Document) {
	for i := range m.rules {
		m.mapOne(&m.rules[i], input, output)
	}
}

// Map 对一条记录应用规则并返回新文档
func (m *Mapper) Map(input any) *Document {
	out := NewDocument()
	m.MapFields(input, out)
	return out
}

// MapFields 按顺序将每条规则应用到 input 上，原地修改 output
// 单条规则失败只会跳过该规则，不会中断整条记录
func MapFields(rules []Rule, input any, output *Document, opts Options) {
	NewMapper(rules, opts).MapFields(input, output)
}

// Map 对一条记录应用规则并返回新文档
func Map(rules []Rule, input any, opts Options) *Document {
	return NewMapper(rules, opts).Map(input)
}

func (m *Mapper) mapOne(c *compiledRule, input any, output *Document) {
	r := c.rule
	opts := m.opts
	defer func() {
		if rec := recover(); rec != nil {
			opts.Logger.Warn("mapping rule panicked, skipped",
				zap.String("rule", ruleLabel(r)),
				zap.Any("panic", rec),
			)
		}
	}()

	if len(c.children) > 0 {
		for i := range c.children {
			m.mapOne(&c.children[i], input, output)
		}
		return
	}

	debug := opts.Debug || r.Debug
	src := r.Source()
	dest := r.Destination()

	var value any
	if src.IsList() {
		value = concatValues(input, c.srcs, r.Concat)
	} else if len(c.srcs) > 0 {
		value = c.srcs[0].extract(input)
	}

	if r.Regex != "" {
		value = applyRegex(c, value, opts.Logger)
	}

	if debug {
		opts.Logger.Info("mapping field",
			zap.Strings("src", src.All()),
			zap.Strings("dest", dest.All()),
			zap.Any("initial_value", value),
		)
	}

	if !proceeds(value) {
		if debug {
			opts.Logger.Info("empty value, rule skipped", zap.String("rule", ruleLabel(r)))
		}
		return
	}

	value = convertWith(r, c.element, value)
	if debug {
		opts.Logger.Info("transformed value",
			zap.String("convert", string(r.Convert)),
			zap.Any("value", value),
		)
	}

	place(r, value, output)

	if debug {
		opts.Logger.Info("field mapped",
			zap.Strings("src", src.All()),
			zap.Strings("dest", dest.All()),
			zap.String("placement", r.Placement().String()),
		)
	}
}

func place(r *Rule, value any, output *Document) {
	dest := r.Destination()

	switch r.Placement() {
	case PlaceFanOut:
		for _, d := range dest.All() {
			output.Set(d, value)
		}

	case PlaceAttribute:
		if value == nil && r.Convert == ConvertNumber {
			return
		}
		attrs := attributesOf(output)
		if p, ok := value.(*Price); ok && r.Convert == ConvertPrice {
			value = p.Value
		}
		name := dest.First()
		if r.Locale != "" {
			var attr *Attribute
			for _, a := range attrs {
				if a.Name == name {
					attr = a
					break
				}
			}
			if attr == nil {
				attr = &Attribute{Name: name, Value: NewDocument()}
				attrs = append(attrs, attr)
			}
			localized, ok := attr.Value.(*Document)
			if !ok {
				localized = NewDocument()
				attr.Value = localized
			}
			localized.Set(r.Locale, value)
		} else {
			// 非本地化属性不合并同名项
			attrs = append(attrs, &Attribute{Name: name, Value: value})
		}
		output.Set(AttributesKey, attrs)

	case PlaceArray:
		name := dest.First()
		list := arrayOf(output, name)
		if value != nil {
			if items, ok := sliceItems(value); ok {
				list = append(list, items...)
			} else {
				list = append(list, value)
			}
		}
		output.Set(name, list)

	default:
		if value == nil && r.Convert == ConvertNumber {
			return
		}
		name := dest.First()
		if r.Locale != "" {
			existing, _ := output.Get(name)
			holder, ok := existing.(*Document)
			if !ok {
				holder = NewDocument()
				output.Set(name, holder)
			}
			holder.Set(r.Locale, value)
			return
		}
		output.Set(name, value)
	}
}

// attributesOf 取出（必要时转换）输出中的属性列表
func attributesOf(output *Document) []*Attribute {
	existing, ok := output.Get(AttributesKey)
	if !ok || existing == nil {
		return make([]*Attribute, 0)
	}
	switch t := existing.(type) {
	case []*Attribute:
		return t
	case []any:
		attrs := make([]*Attribute, 0, len(t))
		for _, e := range t {
			var name, val any
			switch m := e.(type) {
			case *Attribute:
				attrs = append(attrs, m)
				continue
			case *Document:
				name, _ = m.Get("name")
				val, _ = m.Get("value")
			case map[string]any:
				name, val = m["name"], m["value"]
			default:
				continue
			}
			if s, ok := name.(string); ok {
				attrs = append(attrs, &Attribute{Name: s, Value: val})
			}
		}
		return attrs
	}
	return make([]*Attribute, 0)
}

func arrayOf(output *Document, name string) []any {
	existing, ok := output.Get(name)
	if !ok || existing == nil {
		return make([]any, 0)
	}
	if items, ok := sliceItems(existing); ok {
		return items
	}
	return []any{existing}
}

// sliceItems 将任意切片展开为 []any
func sliceItems(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// concatValues 拼接多个源字段，丢弃空值
func concatValues(input any, srcs []source, sep string) string {
	parts := make([]string, 0, len(srcs))
	for _, src := range srcs {
		v := src.extract(input)
		if isFalsy(v) || isEmpty(v) {
			continue
		}
		parts = append(parts, toText(v))
	}
	return strings.Join(parts, sep)
}

func applyRegex(c *compiledRule, value any, logger *zap.Logger) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if c.reErr != nil {
		logger.Warn("invalid regex in mapping rule", zap.String("regex", c.rule.Regex), zap.Error(c.reErr))
		return value
	}
	if m := c.re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return value
}

// proceeds 数值和布尔总是继续；其他类型必须非空
func proceeds(value any) bool {
	if _, ok := value.(bool); ok {
		return true
	}
	if _, ok := numberOf(value); ok {
		return true
	}
	return !isEmpty(value)
}

func isEmpty(value any) bool {
	switch t := value.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case *Document:
		return t.Len() == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func isFalsy(value any) bool {
	if b, ok := value.(bool); ok {
		return !b
	}
	if f, ok := numberOf(value); ok {
		return f == 0
	}
	return false
}

func ruleLabel(r *Rule) string {
	if r.Name != "" {
		return r.Name
	}
	return strings.Join(r.Source().All(), "+") + "->" + strings.Join(r.Destination().All(), ",")
}
