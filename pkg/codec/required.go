package codec

import (
	"reflect"
	"strings"
	"sync"
)

var requiredCache sync.Map // reflect.Type -> []string

// RequiredFields lists the JSON names a params object must carry to decode
// into t. A field is optional when it is a pointer, tagged omitempty or
// omitzero, or skipped with "-". Non-struct types have no required fields.
func RequiredFields(t reflect.Type) []string {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if v, ok := requiredCache.Load(t); ok {
		return v.([]string)
	}
	names := collectRequired(t, nil)
	requiredCache.Store(t, names)
	return names
}

func collectRequired(t reflect.Type, out []string) []string {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		// Untagged embedded structs are flattened by encoding/json.
		if f.Anonymous && name == "" {
			et := f.Type
			if et.Kind() == reflect.Pointer {
				continue
			}
			if et.Kind() == reflect.Struct {
				out = collectRequired(et, out)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if f.Type.Kind() == reflect.Pointer || hasOpt(opts, "omitempty") || hasOpt(opts, "omitzero") {
			continue
		}
		if name == "" {
			name = f.Name
		}
		out = append(out, name)
	}
	return out
}

func hasOpt(opts, want string) bool {
	for opts != "" {
		var o string
		o, opts, _ = strings.Cut(opts, ",")
		if o == want {
			return true
		}
	}
	return false
}
