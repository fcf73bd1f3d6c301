package xtream

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Upstream payloads are untrusted, partially-shaped data: IDs arrive as
// numbers or strings depending on panel software, ratings as strings, and
// arrays sometimes come back as objects (or error blobs) on failure. These
// coercions run at the boundary so everything past decode sees one shape.

// flexString coerces a scalar that may be a JSON number or string. Floats are
// formatted without an exponent so numeric IDs round-trip exactly.
func flexString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatInt(int64(x), 10)
	case json.Number:
		return x.String()
	}
	return ""
}

// flexInt coerces a scalar that may be a JSON number or numeric string.
func flexInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	case json.Number:
		n, _ := x.Int64()
		return int(n)
	}
	return 0
}

// flexFloat coerces a scalar that may be a JSON number or numeric string.
func flexFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case json.Number:
		f, _ := x.Float64()
		return f
	}
	return 0
}

// decodeRecords decodes body as an array of records. Some panels return an
// object keyed by ID instead of an array; those values are collected in key
// order so identical payloads always slice into identical pages. Non-array,
// non-object payloads (error blobs, HTML) yield nil.
func decodeRecords(body []byte) []streamRecord {
	var list []streamRecord
	if err := json.Unmarshal(body, &list); err == nil {
		return list
	}
	var m map[string]streamRecord
	if err := json.Unmarshal(body, &m); err == nil {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		list = make([]streamRecord, 0, len(m))
		for _, k := range keys {
			list = append(list, m[k])
		}
		return list
	}
	return nil
}

// decodeCategories decodes body as an array of category records, nil on any
// other shape.
func decodeCategories(body []byte) []categoryRecord {
	var list []categoryRecord
	if err := json.Unmarshal(body, &list); err != nil {
		return nil
	}
	return list
}

// containerExt returns ext when it looks like a sane container extension,
// else the fallback. Some panels stuff full paths or junk in the field.
func containerExt(ext, fallback string) string {
	if ext == "" || len(ext) > 5 {
		return fallback
	}
	return ext
}
