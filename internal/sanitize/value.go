package sanitize

import "reflect"

// Value returns v with every reachable string cleaned by Text. Structs,
// pointers, slices, arrays, maps and interfaces are walked. Slices and
// pointed-to values are cleaned in place, so v should be freshly fetched
// data that nothing else shares.
func Value[T any](v T) T {
	rv := reflect.ValueOf(&v).Elem()
	walk(rv, 0)
	return v
}

const maxDepth = 32

func walk(v reflect.Value, depth int) {
	if depth > maxDepth || !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			v.SetString(Text(v.String()))
		}
	case reflect.Pointer:
		if !v.IsNil() {
			walk(v.Elem(), depth+1)
		}
	case reflect.Interface:
		if v.IsNil() || !v.CanSet() {
			return
		}
		inner := v.Elem()
		cp := reflect.New(inner.Type()).Elem()
		cp.Set(inner)
		walk(cp, depth+1)
		v.Set(cp)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				walk(v.Field(i), depth+1)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i), depth+1)
		}
	case reflect.Map:
		if v.IsNil() {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			val := reflect.New(iter.Value().Type()).Elem()
			val.Set(iter.Value())
			walk(val, depth+1)
			v.SetMapIndex(iter.Key(), val)
		}
	}
}
