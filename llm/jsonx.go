package llm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractJSON strips markdown fences and surrounding prose and returns the
// outermost JSON object or array in text.
func ExtractJSON(text string) (json.RawMessage, bool) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s), true
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return nil, false
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return nil, false
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}

// fields is a decoded JSON object whose values are read with coercion.
type fields map[string]json.RawMessage

func decodeFields(raw json.RawMessage) (fields, bool) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

func (f fields) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// str reads a string, accepting numbers and booleans as their literal text.
func (f fields) str(keys ...string) (string, bool) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

// float reads a number, accepting numeric strings.
func (f fields) float(keys ...string) (float64, bool) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// stringList reads a list of strings, accepting a single comma separated string.
func (f fields) stringList(keys ...string) ([]string, bool) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, el := range list {
			var s string
			if json.Unmarshal(el, &s) == nil && s != "" {
				out = append(out, s)
			}
		}
		return out, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var out []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

func (f fields) object(keys ...string) (fields, bool) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return nil, false
	}
	return decodeFields(raw)
}

func (f fields) array(keys ...string) ([]json.RawMessage, bool) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	return list, true
}
