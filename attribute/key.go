package attribute

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
)

// KeyString is a search key defined by the attribute controller, e.g. "attribute.status".
type KeyString = string

const (
	KeyID       KeyString = "attribute.id"
	KeyCode     KeyString = "attribute.code"
	KeyDomain   KeyString = "attribute.domain"
	KeyType     KeyString = "attribute.type"
	KeyLabel    KeyString = "attribute.label"
	KeyPosition KeyString = "attribute.position"
	KeyStatus   KeyString = "attribute.status"
	KeyCtime    KeyString = "attribute.ctime"
	KeyMtime    KeyString = "attribute.mtime"
)

// KeyKind is the value type compared under a search key.
type KeyKind int

const (
	KindString KeyKind = iota
	KindInt
	KindTime
)

const timeLayoutDateTime = "2006-01-02 15:04:05"

var searchKeys = map[KeyString]KeyKind{
	KeyID:       KindString,
	KeyCode:     KindString,
	KeyDomain:   KindString,
	KeyType:     KindString,
	KeyLabel:    KindString,
	KeyPosition: KindInt,
	KeyStatus:   KindInt,
	KeyCtime:    KindTime,
	KeyMtime:    KindTime,
}

// KindOf returns the KeyKind of a search key and whether the key is known.
func KindOf(key KeyString) (KeyKind, bool) {
	kind, ok := searchKeys[key]
	return kind, ok
}

// SearchKeys returns all known search keys, sorted.
func SearchKeys() []KeyString {
	keys := make([]KeyString, 0, len(searchKeys))
	for key := range searchKeys {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

// String provides a string representation of KeyKind for error messages.
func (k KeyKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// normalizeValue converts a raw comparison value to the Go type of the key's kind:
// string, int or time.Time.
func normalizeValue(kind KeyKind, value any) (any, error) {
	if value == nil {
		return nil, fmt.Errorf("nil value for %s key", kind)
	}

	switch kind {
	case KindInt:
		return toInt(value)
	case KindTime:
		return toTime(value)
	default:
		return toString(value)
	}
}

func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool, json.Number:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("cannot use %T as string value", value)
	}
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return 0, fmt.Errorf("%d is out of the int range", v)
		}
		return int(v), nil
	case uint:
		return uintToInt(uint64(v))
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return uintToInt(uint64(v))
	case uint64:
		return uintToInt(v)
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return strconv.Atoi(v.String())
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("cannot use %q as int value", v)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot use %T as int value", value)
	}
}

func uintToInt(u uint64) (int, error) {
	if u > math.MaxInt {
		return 0, fmt.Errorf("%d is out of the int range", u)
	}

	return int(u), nil
}

// floatToInt accepts whole numbers in [MinInt, MaxInt]; -float64(MinInt) is the first float above MaxInt.
func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("cannot use %v as int value", f)
	}

	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, fmt.Errorf("%v is out of the int range", f)
	}

	return int(f), nil
}

func toTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, timeLayoutDateTime, time.DateOnly} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot use %q as time value", v)
	default:
		return time.Time{}, fmt.Errorf("cannot use %T as time value", value)
	}
}
