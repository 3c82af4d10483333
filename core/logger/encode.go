package logger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type encoder interface {
	encode(r record, order []string) ([]byte, error)
}

// keysInOrder returns the keys of r listed in order first, the rest sorted.
func keysInOrder(r record, order []string) []string {
	keys := make([]string, 0, len(r))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := r[k]; ok && !listed[k] {
			keys = append(keys, k)
			listed[k] = true
		}
	}
	rest := make([]string, 0, len(r)-len(keys))
	for k := range r {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

type jsonEncoder struct{}

func (jsonEncoder) encode(r record, order []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range keysInOrder(r, order) {
		v, err := json.Marshal(r[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

type kvEncoder struct{}

func (kvEncoder) encode(r record, order []string) ([]byte, error) {
	var b bytes.Buffer
	for i, k := range keysInOrder(r, order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(r[k]))
	}
	return b.Bytes(), nil
}

func kvValue(v any) string {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case bool:
		s = strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		s = fmt.Sprint(x)
	}
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
