package system

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// parseCIMOutput decodes ConvertTo-Json output, which is a single object for
// one instance and an array otherwise.
func parseCIMOutput(out []byte, displayField string) ([]Instance, error) {
	out = bytes.TrimSpace(out)
	var raw []map[string]any
	if len(out) > 0 && out[0] == '[' {
		if err := json.Unmarshal(out, &raw); err != nil {
			return nil, err
		}
	} else {
		var one map[string]any
		if err := json.Unmarshal(out, &one); err != nil {
			return nil, err
		}
		raw = append(raw, one)
	}

	instances := make([]Instance, 0, len(raw))
	for _, obj := range raw {
		inst := Instance{Display: cimString(obj[displayField])}
		for k, v := range obj {
			if v == nil {
				continue
			}
			s := cimString(v)
			if s == "" {
				continue
			}
			inst.Properties = append(inst.Properties, Property{Key: k, Value: s})
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func cimString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case map[string]any, []any:
		// nested objects are not useful in a flat fact list
		return ""
	default:
		return fmt.Sprint(t)
	}
}
