package mapping

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money 金额
type Money struct {
	CurrencyCode string `json:"currencyCode"`
	CentAmount   int64  `json:"centAmount"`
}

// KeyReference 按 key 引用的资源
type KeyReference struct {
	Key string `json:"key"`
}

// Price 价格（可带渠道和国家范围）
type Price struct {
	Value   Money         `json:"value"`
	Channel *KeyReference `json:"channel,omitempty"`
	Country string        `json:"country,omitempty"`
}

// CategoryReference 分类引用
type CategoryReference struct {
	Key    string `json:"key"`
	TypeID string `json:"typeId"`
}

// Dimensions 图片尺寸
type Dimensions struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Image 图片
type Image struct {
	URL        string     `json:"url"`
	Dimensions Dimensions `json:"dimensions"`
}

const defaultCurrency = "USD"

// 没有“分”的货币，金额不乘 100
var zeroDecimalCurrencies = map[string]bool{
	"CLP": true,
}

var (
	half    = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)

	numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// convertWith 按规则的 convert 标签转换值，element 为预解析的 r.Element
func convertWith(r *Rule, element source, value any) any {
	switch r.Convert {
	case ConvertSlug:
		return ToSlug(toText(value))
	case ConvertCategory:
		return &CategoryReference{Key: toText(value), TypeID: "category"}
	case ConvertPrice:
		return toPrice(r, value)
	case ConvertNumber:
		if f, ok := parseFloat(value); ok {
			return f
		}
		return nil
	case ConvertBoolean:
		return toBoolean(value)
	case ConvertImage:
		return toImage(value)
	case ConvertFlatten:
		return flatten(value)
	case ConvertFlattenList:
		items := asList(value)
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, flatten(item))
		}
		return out
	case ConvertNewlineList:
		out := make([]any, 0)
		for _, line := range strings.Split(toText(value), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case ConvertText:
		return toText(value)
	case ConvertList:
		items := asList(value)
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if r.Element != "" {
				item = element.extract(item)
			}
			parts = append(parts, toText(item))
		}
		return strings.Join(parts, ",")
	default:
		return value
	}
}

func toPrice(r *Rule, value any) *Price {
	amount, ok := parseDecimal(value)
	if !ok {
		amount = decimal.Zero
	}

	currency := r.Currency
	var cents int64
	if zeroDecimalCurrencies[currency] {
		cents = amount.Add(half).Truncate(0).IntPart()
	} else {
		if currency == "" {
			currency = defaultCurrency
		}
		cents = amount.Mul(hundred).Add(half).Truncate(0).IntPart()
	}

	price := &Price{Value: Money{CurrencyCode: currency, CentAmount: cents}}
	if r.Channel != "" {
		price.Channel = &KeyReference{Key: r.Channel}
	}
	if r.Country != "" {
		price.Country = r.Country
	}
	return price
}

func toBoolean(value any) bool {
	if b, ok := value.(bool); ok {
		return b
	}
	if f, ok := numberOf(value); ok {
		return f != 0
	}
	switch strings.ToLower(toText(value)) {
	case "true", "1", "y", "yes":
		return true
	}
	return false
}

func toImage(value any) any {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return &Image{URL: s}
	}
	return nil
}

// flatten 将对象渲染为 "k1 v1, k2 v2"
func flatten(value any) string {
	var parts []string
	switch t := value.(type) {
	case *Document:
		for _, k := range t.Keys() {
			v, _ := t.Get(k)
			parts = append(parts, k+" "+toText(v))
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			parts = append(parts, k+" "+toText(t[k]))
		}
	case map[string]string:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, k+" "+t[k])
		}
	default:
		return toText(value)
	}
	return strings.Join(parts, ", ")
}

func asList(value any) []any {
	switch t := value.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	case []*Document:
		out := make([]any, len(t))
		for i, d := range t {
			out[i] = d
		}
		return out
	}
	return []any{value}
}

// numberOf 数值类型转 float64
func numberOf(value any) (float64, bool) {
	switch t := value.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// parseFloat 与 JS parseFloat 一致：解析开头的数字部分，失败返回 false
func parseFloat(value any) (float64, bool) {
	if f, ok := numberOf(value); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	s, ok := value.(string)
	if !ok {
		return 0, false
	}
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseDecimal 与 parseFloat 规则相同，但保持十进制精度
func parseDecimal(value any) (decimal.Decimal, bool) {
	if s, ok := value.(string); ok {
		m := numericPrefix.FindString(strings.TrimSpace(s))
		if m == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(m)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	if n, ok := value.(json.Number); ok {
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}
	f, ok := parseFloat(value)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// toText 任意值转字符串
func toText(value any) string {
	switch t := value.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = toText(e)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	}
	if f, ok := numberOf(value); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(b)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
