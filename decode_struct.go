package frps

import (
	"bytes"
	"reflect"
	"strings"
	"sync"
)

// structInfo holds cached reflection info for a struct type
type structInfo struct {
	fields []fieldInfo
}

// fieldInfo holds info about a single struct field
type fieldInfo struct {
	index []int // field index path (supports embedded)
	name  []byte
}

// structCache caches struct info to avoid repeated reflection
var structCache sync.Map // map[reflect.Type]*structInfo

// getStructInfo returns cached struct info, computing it if necessary
func getStructInfo(t reflect.Type) *structInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo)
	}
	info := &structInfo{}
	buildStructFields(t, nil, info)
	structCache.Store(t, info)
	return info
}

// buildStructFields recursively builds field info, handling embedded structs
func buildStructFields(t reflect.Type, index []int, info *structInfo) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		fieldIndex := append(append([]int(nil), index...), i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			buildStructFields(field.Type, fieldIndex, info)
			continue
		}

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		tag := field.Tag.Get("frps")
		if tag == "-" {
			continue
		}

		name := tag
		if idx := strings.Index(tag, ","); idx != -1 {
			name = tag[:idx]
		}
		if name == "" {
			name = field.Name
		}

		info.fields = append(info.fields, fieldInfo{
			index: fieldIndex,
			name:  []byte(name),
		})
	}
}

// DecodeStruct maps a decoded struct value onto a Go struct. v must be a
// pointer to a struct. Members with no matching field are ignored, as are
// fields with no matching member.
func (val *Value) DecodeStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ErrNotPointer
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return ErrNotStruct
	}
	return decodeIntoStruct(val, rv)
}

func decodeIntoStruct(val *Value, rv reflect.Value) error {
	if val.Kind == KindNull {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	if val.Kind != KindStruct {
		return ErrTypeMismatch
	}

	info := getStructInfo(rv.Type())
	for i := range val.Members {
		m := &val.Members[i]
		var field *fieldInfo
		for j := range info.fields {
			if string(info.fields[j].name) == m.Name {
				field = &info.fields[j]
				break
			}
		}
		if field == nil {
			continue
		}
		fv := rv.FieldByIndex(field.index)
		if !fv.CanSet() {
			continue
		}
		if err := decodeIntoValue(&m.Value, fv); err != nil {
			return err
		}
	}
	return nil
}

// decodeIntoValue maps one decoded value into a reflect.Value
func decodeIntoValue(val *Value, rv reflect.Value) error {
	if val.Kind == KindNull && rv.Kind() != reflect.Ptr && rv.Kind() != reflect.Interface {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		if val.Kind != KindBool {
			return ErrTypeMismatch
		}
		rv.SetBool(val.Bool)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if val.Kind != KindInt {
			return ErrTypeMismatch
		}
		if rv.OverflowInt(val.Int) {
			return ErrTypeMismatch
		}
		rv.SetInt(val.Int)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if val.Kind != KindInt || val.Int < 0 {
			return ErrTypeMismatch
		}
		if rv.OverflowUint(uint64(val.Int)) {
			return ErrTypeMismatch
		}
		rv.SetUint(uint64(val.Int))

	case reflect.Float32, reflect.Float64:
		switch val.Kind {
		case KindDouble:
			rv.SetFloat(val.Double)
		case KindInt:
			rv.SetFloat(float64(val.Int))
		default:
			return ErrTypeMismatch
		}

	case reflect.String:
		if val.Kind != KindString {
			return ErrTypeMismatch
		}
		rv.SetString(string(val.Bytes))

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if val.Kind != KindBinary && val.Kind != KindString {
				return ErrTypeMismatch
			}
			rv.SetBytes(bytes.Clone(val.Bytes))
			return nil
		}
		if val.Kind != KindArray {
			return ErrTypeMismatch
		}
		slice := reflect.MakeSlice(rv.Type(), len(val.Items), len(val.Items))
		for i := range val.Items {
			if err := decodeIntoValue(&val.Items[i], slice.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(slice)

	case reflect.Array:
		if val.Kind != KindArray {
			return ErrTypeMismatch
		}
		n := rv.Len()
		for i := range val.Items {
			if i >= n {
				break
			}
			if err := decodeIntoValue(&val.Items[i], rv.Index(i)); err != nil {
				return err
			}
		}

	case reflect.Map:
		if val.Kind != KindStruct {
			return ErrTypeMismatch
		}
		if rv.Type().Key().Kind() != reflect.String {
			return ErrUnsupportedType
		}
		if rv.IsNil() {
			rv.Set(reflect.MakeMapWithSize(rv.Type(), len(val.Members)))
		}
		valType := rv.Type().Elem()
		for i := range val.Members {
			mv := reflect.New(valType).Elem()
			if err := decodeIntoValue(&val.Members[i].Value, mv); err != nil {
				return err
			}
			rv.SetMapIndex(reflect.ValueOf(val.Members[i].Name).Convert(rv.Type().Key()), mv)
		}

	case reflect.Struct:
		if rv.Type() == dateTimeType {
			if val.Kind != KindDateTime {
				return ErrTypeMismatch
			}
			rv.Set(reflect.ValueOf(val.DateTime))
			return nil
		}
		return decodeIntoStruct(val, rv)

	case reflect.Ptr:
		if val.Kind == KindNull {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeIntoValue(val, rv.Elem())

	case reflect.Interface:
		rv.Set(reflect.ValueOf(valueToAny(val)))

	default:
		return ErrUnsupportedType
	}
	return nil
}

var dateTimeType = reflect.TypeOf(DateTime{})

// Interface converts the value into untyped Go data, the shape produced by
// valueToAny.
func (v *Value) Interface() any {
	return valueToAny(v)
}

// valueToAny converts a decoded value into untyped Go data: struct members
// become map[string]any, arrays become []any.
func valueToAny(val *Value) any {
	switch val.Kind {
	case KindNull:
		return nil
	case KindBool:
		return val.Bool
	case KindInt:
		return val.Int
	case KindDouble:
		return val.Double
	case KindString:
		return string(val.Bytes)
	case KindBinary:
		return bytes.Clone(val.Bytes)
	case KindDateTime:
		return val.DateTime
	case KindArray:
		out := make([]any, len(val.Items))
		for i := range val.Items {
			out[i] = valueToAny(&val.Items[i])
		}
		return out
	case KindStruct:
		out := make(map[string]any, len(val.Members))
		for i := range val.Members {
			m := &val.Members[i]
			if _, dup := out[m.Name]; dup {
				continue
			}
			out[m.Name] = valueToAny(&m.Value)
		}
		return out
	}
	return nil
}

// UnmarshalStruct decodes a complete envelope and maps its first value onto
// a Go struct. Faults and empty envelopes report a type mismatch.
func UnmarshalStruct(data []byte, v any) error {
	return UnmarshalStructConfig(data, v, DefaultConfig())
}

// UnmarshalStructConfig is UnmarshalStruct with explicit limits.
func UnmarshalStructConfig(data []byte, v any, cfg Config) error {
	m, err := UnmarshalConfig(data, cfg)
	if err != nil {
		return err
	}
	if m.Kind == MessageFault || len(m.Values) == 0 {
		return ErrTypeMismatch
	}
	return m.Values[0].DecodeStruct(v)
}
