package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// segment 路径中的一段：属性名或数组下标
type segment struct {
	key     string
	index   int
	isIndex bool
}

type fieldPath []segment

// parsePath 解析 "a.b[0].c" 或 a["b c"] 形式的路径
func parsePath(s string) (fieldPath, error) {
	var (
		path fieldPath
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			path = append(path, segment{key: cur.String()})
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '.':
			if cur.Len() == 0 && (i == 0 || s[i-1] != ']') {
				return nil, fmt.Errorf("empty segment at offset %d in path %q", i, s)
			}
			flush()
		case '[':
			flush()
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated '[' in path %q", s)
			}
			inner := strings.TrimSpace(s[i+1 : i+end])
			if n := len(inner); n >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[n-1] == inner[0] {
				path = append(path, segment{key: inner[1 : n-1]})
			} else {
				idx, err := strconv.Atoi(inner)
				if err != nil || idx < 0 {
					return nil, fmt.Errorf("invalid index %q in path %q", inner, s)
				}
				path = append(path, segment{index: idx, isIndex: true})
			}
			i += end
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() == 0 && strings.HasSuffix(s, ".") {
		return nil, fmt.Errorf("trailing '.' in path %q", s)
	}
	flush()
	if len(path) == 0 {
		return nil, fmt.Errorf("empty path")
	}

	return path, nil
}

// isComplexPath 只有包含 '.' 或 '[' 的源才按路径解析，其余按原样作为键
func isComplexPath(src string) bool {
	return strings.ContainsAny(src, ".[")
}

// Extract 从输入中取值；任何中间段缺失都返回 nil，不会报错
// 每次调用都重新解析路径，批量映射应使用 Mapper
func Extract(input any, src string) any {
	return newSource(src).extract(input)
}

// source 预解析的源路径
type source struct {
	raw  string
	path fieldPath // 简单键时为 nil
	err  error
}

func newSource(src string) source {
	if !isComplexPath(src) {
		return source{raw: src}
	}
	path, err := parsePath(src)
	return source{raw: src, path: path, err: err}
}

func (s source) extract(input any) any {
	if s.err != nil {
		return nil
	}
	if s.path == nil {
		v, _ := lookupKey(input, s.raw)
		return v
	}
	cur := input
	for _, seg := range s.path {
		var ok bool
		if seg.isIndex {
			cur, ok = lookupIndex(cur, seg.index)
		} else {
			cur, ok = lookupSegment(cur, seg.key)
		}
		if !ok {
			return nil
		}
	}
	return cur
}

// lookupSegment 点号分隔的数字段可以作为数组下标："items.0.name"
func lookupSegment(v any, key string) (any, bool) {
	if val, ok := lookupKey(v, key); ok {
		return val, true
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 {
		return nil, false
	}
	return lookupIndex(v, idx)
}

func lookupKey(v any, key string) (any, bool) {
	switch t := v.(type) {
	case *Document:
		return t.Get(key)
	case map[string]any:
		val, ok := t[key]
		return val, ok
	case map[string]string:
		val, ok := t[key]
		return val, ok
	}
	return nil, false
}

func lookupIndex(v any, idx int) (any, bool) {
	switch t := v.(type) {
	case []any:
		if idx < len(t) {
			return t[idx], true
		}
	case []string:
		if idx < len(t) {
			return t[idx], true
		}
	case []map[string]any:
		if idx < len(t) {
			return t[idx], true
		}
	case []*Document:
		if idx < len(t) {
			return t[idx], true
		}
	}
	return nil, false
}
