package schema

// InferFromValue walks a decoded JSON value (the output of
// encoding/json.Unmarshal into interface{}) and produces a Field
// descriptor for it (spec §4.8 mode 2 "JSON sample").
func InferFromValue(name string, v interface{}) *Field {
	switch val := v.(type) {
	case nil:
		return &Field{Name: name, Type: TypeNull, Required: false}
	case bool:
		return &Field{Name: name, Type: TypeBoolean, Required: true}
	case float64:
		return &Field{Name: name, Type: TypeNumber, Required: true}
	case string:
		return &Field{Name: name, Type: TypeString, Required: true}
	case []interface{}:
		return inferArray(name, val)
	case map[string]interface{}:
		return inferObject(name, val)
	default:
		return &Field{Name: name, Type: TypeUnknown, Required: true}
	}
}

func inferArray(name string, items []interface{}) *Field {
	f := &Field{Name: name, Type: TypeArray, Required: true}
	if len(items) == 0 {
		f.ArrayItemType = &Field{Type: TypeUnknown}
		return f
	}
	f.ArrayItemType = InferFromValue("", items[0])
	return f
}

func inferObject(name string, obj map[string]interface{}) *Field {
	f := &Field{Name: name, Type: TypeObject, Required: true, Object: make(map[string]*Field, len(obj))}
	for k, v := range obj {
		f.Object[k] = InferFromValue(k, v)
	}
	return f
}

// InferFieldsFromSample infers a top-level field set from a JSON object
// sample, as used by InferFromStore per-node before merging.
func InferFieldsFromSample(obj map[string]interface{}) map[string]*Field {
	out := make(map[string]*Field, len(obj))
	for k, v := range obj {
		if reservedFieldNames[k] {
			continue
		}
		out[k] = InferFromValue(k, v)
	}
	return out
}
