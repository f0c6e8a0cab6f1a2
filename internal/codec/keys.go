package codec

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
)

// compareKeys orders map and set keys deterministically: strings lexically,
// numbers numerically, anything else by type name and then printed form.
func compareKeys(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}

	af, aNum := number(a)
	bf, bNum := number(b)
	if aNum && bNum {
		if c := cmp.Compare(af, bf); c != 0 {
			return c
		}
	}

	if c := strings.Compare(kindOf(a), kindOf(b)); c != 0 {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func kindOf(v any) string {
	if v == nil {
		return ""
	}
	return reflect.TypeOf(v).String()
}
