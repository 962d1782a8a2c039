package storage

import (
	"math"
	"strconv"
	"strings"
	"time"

	"spendview/internal/core"
)

// normalize maps driver values onto the small set core.Value allows:
// nil, int64, float64, bool, string and time.Time.
// Drivers hand back DECIMAL and NUMERIC as text, so the declared type decides.
func normalize(v any, dbType string) core.Value {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return fromText(string(x), dbType)
	case string:
		return fromText(x, dbType)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return float64(x)
	case float64, bool, time.Time:
		return x
	}
	return v
}

func fromText(s, dbType string) core.Value {
	switch typeClass(dbType) {
	case classInt:
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i
		}
	case classFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return s
}

type class int

const (
	classText class = iota
	classInt
	classFloat
)

func typeClass(dbType string) class {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	t = strings.TrimPrefix(t, "UNSIGNED ")
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch t {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "INT2", "INT4", "INT8", "YEAR":
		return classInt
	case "DECIMAL", "NUMERIC", "NEWDECIMAL", "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8", "MONEY":
		return classFloat
	}
	return classText
}
