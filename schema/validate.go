package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ParseJSON decodes raw JSON and validates it against the schema, returning
// the coerced value.
func (s *Schema) ParseJSON(raw []byte) (any, error) {
	var v any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return s.Parse(v)
}

// Parse validates v against the schema and returns a copy with values
// coerced to the declared types. Models frequently send numbers and booleans
// as strings; coercion keeps tool handlers simple.
func (s *Schema) Parse(v any) (any, error) {
	return s.parse(v, "$")
}

// Validate checks v against the schema, discarding the coerced value.
func (s *Schema) Validate(v any) error {
	_, err := s.Parse(v)
	return err
}

func (s *Schema) parse(v any, path string) (any, error) {
	if s == nil {
		return v, nil
	}
	if len(s.Enum) > 0 {
		if err := s.checkEnum(v, path); err != nil {
			return nil, err
		}
	}
	switch s.Type {
	case TypeObject, "":
		return s.parseObject(v, path)
	case TypeArray:
		return s.parseArray(v, path)
	case TypeString:
		return coerceString(v, path)
	case TypeNumber:
		return coerceNumber(v, path)
	case TypeInteger:
		return coerceInteger(v, path)
	case TypeBoolean:
		return coerceBoolean(v, path)
	case TypeNull:
		if v != nil {
			return nil, fmt.Errorf("%s: expected null, got %T", path, v)
		}
		return nil, nil
	default:
		return v, nil
	}
}

func (s *Schema) parseObject(v any, path string) (any, error) {
	if v == nil {
		if len(s.Required) > 0 {
			return nil, fmt.Errorf("%s: missing required parameter %q", path, s.Required[0])
		}
		return map[string]any{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		if s.Type == "" {
			// Untyped node without properties accepts anything.
			if s.Properties == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("%s: expected object, got %T", path, v)
	}

	for _, req := range s.Required {
		val, present := obj[req]
		if !present {
			provided := make([]string, 0, len(obj))
			for k := range obj {
				provided = append(provided, k)
			}
			return nil, fmt.Errorf("%s: missing required parameter %q (provided: %v)", path, req, provided)
		}
		if isEmptyValue(val) {
			return nil, fmt.Errorf("%s: required parameter %q cannot be empty", path, req)
		}
	}

	out := make(map[string]any, len(obj))
	for k, val := range obj {
		prop, declared := s.Properties[k]
		if !declared {
			// Undeclared parameters pass through untouched.
			out[k] = val
			continue
		}
		parsed, err := prop.parse(val, path+"."+k)
		if err != nil {
			return nil, err
		}
		out[k] = parsed
	}
	return out, nil
}

func (s *Schema) parseArray(v any, path string) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %T", path, v)
	}
	if s.Items == nil {
		return arr, nil
	}
	out := make([]any, len(arr))
	for i, item := range arr {
		parsed, err := s.Items.parse(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = parsed
	}
	return out, nil
}

func (s *Schema) checkEnum(v any, path string) error {
	for _, allowed := range s.Enum {
		if reflect.DeepEqual(v, allowed) {
			return nil
		}
		// JSON numbers land as float64; tolerate integer enum literals.
		if vf, ok := toFloat(v); ok {
			if af, ok := toFloat(allowed); ok && vf == af {
				return nil
			}
		}
	}
	return fmt.Errorf("%s: value %v not in enum %v", path, v, s.Enum)
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	return false
}

func coerceString(v any, path string) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case nil:
		return "", nil
	default:
		return nil, fmt.Errorf("%s: cannot convert %T to string", path, v)
	}
}

func coerceNumber(v any, path string) (any, error) {
	if f, ok := toFloat(v); ok {
		return f, nil
	}
	if str, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: cannot convert %q to number", path, str)
		}
		return f, nil
	}
	return nil, fmt.Errorf("%s: cannot convert %T to number", path, v)
}

func coerceInteger(v any, path string) (any, error) {
	switch val := v.(type) {
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("%s: %v is not an integer", path, val)
		}
		return int(val), nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("%s: cannot convert %q to integer", path, val)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("%s: cannot convert %T to integer", path, v)
	}
}

func coerceBoolean(v any, path string) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
		return nil, fmt.Errorf("%s: cannot convert %q to boolean", path, val)
	case float64:
		return val != 0, nil
	default:
		return nil, fmt.Errorf("%s: cannot convert %T to boolean", path, v)
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}
