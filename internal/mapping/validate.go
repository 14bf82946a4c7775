package mapping

import (
	"errors"
	"fmt"
	"regexp"
)

// ValidationError 单条规则的校验错误
type ValidationError struct {
	Index  int
	Rule   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule %d (%s): %s", e.Index, e.Rule, e.Reason)
}

// Validate 校验规则列表，返回所有问题的合并错误
// MapFields 本身不做校验，调用方可以在加载规则后先调用本函数
func Validate(rules []Rule) error {
	var errs []error
	for i := range rules {
		r := &rules[i]
		fail := func(format string, args ...any) {
			errs = append(errs, &ValidationError{Index: i, Rule: ruleLabel(r), Reason: fmt.Sprintf(format, args...)})
		}

		src := r.Source()
		if src.IsZero() || (src.IsList() && len(src.All()) == 0) {
			fail("missing src and name")
		}
		dest := r.Destination()
		if dest.IsZero() || (dest.IsList() && len(dest.All()) == 0) {
			fail("missing dest and name")
		}

		for _, p := range src.All() {
			if isComplexPath(p) {
				if _, err := parsePath(p); err != nil {
					fail("invalid src path: %v", err)
				}
			}
		}

		if !r.Convert.Known() {
			fail("unknown convert %q", r.Convert)
		}
		if r.Type != "" && r.Type != TypeArray && r.Type != TypeAttr {
			fail("unknown type %q", r.Type)
		}
		if r.Regex != "" {
			if _, err := regexp.Compile(r.Regex); err != nil {
				fail("invalid regex: %v", err)
			}
		}

		if len(r.LocaleMap) > 0 {
			if src.IsList() {
				fail("localeMap cannot be combined with a list src")
			}
			for j, entry := range r.LocaleMap {
				if entry.Src == "" || entry.Dest == "" {
					fail("localeMap entry %d needs both src and dest", j)
				}
			}
		}

		if dest.IsList() && (r.isAttribute() || r.Locale != "" || r.Type == TypeArray) {
			fail("a list dest fans out to top-level keys and cannot be combined with attr, locale or type array")
		}
	}
	return errors.Join(errs...)
}
