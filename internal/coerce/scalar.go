package coerce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/schema"
)

var errNull = errors.New("null value for a required field")

// Scalar coerces raw to the scalar kind k. Relation kinds are rejected;
// use Coercer.Value for those.
func Scalar(entity, field string, k schema.Kind, raw any) (ir.IRValue, error) {
	var (
		v   ir.IRValue
		err error
	)
	switch k {
	case schema.KindText:
		v, err = toText(raw)
	case schema.KindDateTime:
		v, err = toDateTime(raw)
	case schema.KindInteger64:
		v, err = toInteger(raw)
	case schema.KindBoolean:
		v, err = toBoolean(raw)
	default:
		err = fmt.Errorf("%s is not a scalar kind", k)
	}
	if err != nil {
		return nil, ir.NewTypeMismatch(entity, field, raw, err)
	}
	return v, nil
}

// isEmpty reports whether raw is absent for a non-text field. The remote
// sends "" or an empty list or object where it has no value.
func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func toText(raw any) (ir.IRValue, error) {
	switch v := raw.(type) {
	case nil:
		return ir.IRNull{}, nil
	case string:
		return ir.IRString(v), nil
	case json.Number:
		return ir.IRString(v.String()), nil
	}

	// Arrays, objects and other scalars are kept as their JSON text.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("serialize to text: %w", err)
	}
	return ir.IRString(strings.TrimSuffix(buf.String(), "\n")), nil
}

func toInteger(raw any) (ir.IRValue, error) {
	if isEmpty(raw) {
		return ir.IRNull{}, nil
	}
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, err
		}
		return ir.IRInt(n), nil
	case int:
		return ir.IRInt(v), nil
	case int32:
		return ir.IRInt(v), nil
	case int64:
		return ir.IRInt(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("%d overflows int64", v)
		}
		return ir.IRInt(v), nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return nil, fmt.Errorf("%v is not an exact integer", v)
		}
		return ir.IRInt(int64(v)), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, err
		}
		return ir.IRInt(n), nil
	default:
		return nil, fmt.Errorf("not a number")
	}
}

func toBoolean(raw any) (ir.IRValue, error) {
	if isEmpty(raw) {
		return ir.IRNull{}, nil
	}
	switch v := raw.(type) {
	case bool:
		return ir.IRBool(v), nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, err
		}
		return ir.IRBool(b), nil
	}

	n, err := toInteger(raw)
	if err != nil {
		return nil, err
	}
	switch n {
	case ir.IRInt(0):
		return ir.IRBool(false), nil
	case ir.IRInt(1):
		return ir.IRBool(true), nil
	}
	return nil, fmt.Errorf("integer %v is not 0 or 1", n)
}

func toDateTime(raw any) (ir.IRValue, error) {
	if isEmpty(raw) {
		return ir.IRNull{}, nil
	}
	switch v := raw.(type) {
	case time.Time:
		return ir.NewIRTime(v), nil
	case string:
		t, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		return ir.NewIRTime(t), nil
	}

	n, err := toInteger(raw)
	if err != nil {
		return nil, fmt.Errorf("not a timestamp or date: %w", err)
	}
	return ir.NewIRTime(time.Unix(int64(n.(ir.IRInt)), 0)), nil
}
