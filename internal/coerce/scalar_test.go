package coerce

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/graphmirror/internal/ir"
	"github.com/roach88/graphmirror/internal/schema"
)

func TestScalar(t *testing.T) {
	tests := []struct {
		name string
		kind schema.Kind
		raw  any
		want ir.IRValue
	}{
		{"text string", schema.KindText, "hello", ir.IRString("hello")},
		{"text null", schema.KindText, nil, ir.IRNull{}},
		{"text empty stays empty", schema.KindText, "", ir.IRString("")},
		{"text number", schema.KindText, json.Number("42"), ir.IRString("42")},
		{"text array", schema.KindText, []any{"a", json.Number("1")}, ir.IRString(`["a",1]`)},
		{"text object no html escaping", schema.KindText, map[string]any{"u": "<b>"}, ir.IRString(`{"u":"<b>"}`)},
		{"text bool", schema.KindText, true, ir.IRString("true")},

		{"integer number", schema.KindInteger64, json.Number("9007199254740993"), ir.IRInt(9007199254740993)},
		{"integer string", schema.KindInteger64, "123", ir.IRInt(123)},
		{"integer empty", schema.KindInteger64, "", ir.IRNull{}},
		{"integer null", schema.KindInteger64, nil, ir.IRNull{}},
		{"integer zero is a value", schema.KindInteger64, json.Number("0"), ir.IRInt(0)},
		{"integer go int", schema.KindInteger64, 7, ir.IRInt(7)},
		{"integer exact float", schema.KindInteger64, 3.0, ir.IRInt(3)},
		{"integer empty list", schema.KindInteger64, []any{}, ir.IRNull{}},
		{"integer empty object", schema.KindInteger64, map[string]any{}, ir.IRNull{}},

		{"boolean", schema.KindBoolean, false, ir.IRBool(false)},
		{"boolean one", schema.KindBoolean, json.Number("1"), ir.IRBool(true)},
		{"boolean string", schema.KindBoolean, "true", ir.IRBool(true)},
		{"boolean null", schema.KindBoolean, nil, ir.IRNull{}},
		{"boolean empty list", schema.KindBoolean, []any{}, ir.IRNull{}},
		{"boolean empty object", schema.KindBoolean, map[string]any{}, ir.IRNull{}},

		{"datetime null", schema.KindDateTime, nil, ir.IRNull{}},
		{"datetime empty", schema.KindDateTime, "", ir.IRNull{}},
		{"datetime empty list", schema.KindDateTime, []any{}, ir.IRNull{}},
		{"text empty list is text", schema.KindText, []any{}, ir.IRString("[]")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scalar("album", "f", tt.kind, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalarTypeMismatch(t *testing.T) {
	tests := []struct {
		name string
		kind schema.Kind
		raw  any
	}{
		{"integer word", schema.KindInteger64, "abc"},
		{"integer fraction", schema.KindInteger64, json.Number("1.5")},
		{"integer inexact float", schema.KindInteger64, 2.5},
		{"integer object", schema.KindInteger64, map[string]any{"n": json.Number("1")}},
		{"integer list", schema.KindInteger64, []any{json.Number("1")}},
		{"boolean list", schema.KindBoolean, []any{true}},
		{"boolean two", schema.KindBoolean, json.Number("2")},
		{"boolean word", schema.KindBoolean, "maybe"},
		{"datetime word", schema.KindDateTime, "not-a-date"},
		{"datetime array", schema.KindDateTime, []any{json.Number("1")}},
		{"relation is not scalar", schema.KindRelation, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scalar("album", "f", tt.kind, tt.raw)
			require.Error(t, err)
			assert.True(t, ir.IsTypeMismatch(err), err.Error())
		})
	}
}

func TestDateTimeTimestampMatchesDateString(t *testing.T) {
	fromTimestamp, err := Scalar("user", "birthday", schema.KindDateTime, json.Number("1356998400"))
	require.NoError(t, err)
	fromString, err := Scalar("user", "birthday", schema.KindDateTime, "January 1, 2013")
	require.NoError(t, err)

	assert.True(t, fromTimestamp.(ir.IRTime).Time().Equal(fromString.(ir.IRTime).Time()))
	assert.Equal(t, fromTimestamp, fromString)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"January 1, 2013", time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"December 25, 1999", time.Date(1999, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"March 15", time.Date(1970, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"July 04", time.Date(1970, 7, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	_, err := ParseDate("not-a-date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-date")
}
