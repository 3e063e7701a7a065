package rule

import (
	"strconv"
	"strings"

	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
)

// ExpandInline expands an inline expression into the list of names it
// denotes, in declaration order. Top-level commas separate independent
// expressions; ${a..b} is an integer range and ${x,y} an enumeration.
// Several placeholders in one expression produce their cartesian product,
// the leftmost placeholder varying slowest.
//
//	ds_${0..1}.t_order_${0..1} -> ds_0.t_order_0, ds_0.t_order_1, ds_1.t_order_0, ds_1.t_order_1
func ExpandInline(expr string) ([]string, error) {
	parts, err := splitTopLevel(expr)
	if err != nil {
		return nil, err
	}

	var res []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		expanded, err := expandOne(p)
		if err != nil {
			return nil, err
		}
		res = append(res, expanded...)
	}
	if len(res) == 0 {
		return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "inline expression %q is empty", expr)
	}
	return res, nil
}

func splitTopLevel(expr string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, errUnbalanced(expr)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, expr[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errUnbalanced(expr)
	}
	return append(parts, expr[start:]), nil
}

func errUnbalanced(expr string) error {
	return shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "unbalanced braces in inline expression %q", expr)
}

func expandOne(expr string) ([]string, error) {
	idx := strings.Index(expr, "${")
	if idx < 0 {
		return []string{expr}, nil
	}
	end := strings.IndexByte(expr[idx:], '}')
	if end < 0 {
		return nil, errUnbalanced(expr)
	}
	end += idx

	values, err := placeholderValues(expr[idx+2 : end])
	if err != nil {
		return nil, err
	}
	rest, err := expandOne(expr[end+1:])
	if err != nil {
		return nil, err
	}

	prefix := expr[:idx]
	res := make([]string, 0, len(values)*len(rest))
	for _, v := range values {
		for _, r := range rest {
			res = append(res, prefix+v+r)
		}
	}
	return res, nil
}

func placeholderValues(body string) ([]string, error) {
	body = strings.TrimSpace(body)
	if from, to, ok := strings.Cut(body, ".."); ok {
		lo, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, shardingerror.Wrap(shardingerror.SHARD_INVALID_CONFIG, err)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, shardingerror.Wrap(shardingerror.SHARD_INVALID_CONFIG, err)
		}
		if hi < lo {
			return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "inline range %d..%d is descending", lo, hi)
		}
		res := make([]string, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			res = append(res, strconv.Itoa(i))
		}
		return res, nil
	}

	var res []string
	for _, v := range strings.Split(body, ",") {
		v = strings.Trim(strings.TrimSpace(v), `'"`)
		if v == "" {
			return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "empty item in inline placeholder ${%s}", body)
		}
		res = append(res, v)
	}
	return res, nil
}
