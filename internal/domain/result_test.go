package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleResult() *ResultSet {
	return &ResultSet{
		Columns: []Column{{Name: "symbol", Type: "SYMBOL"}, {Name: "price", Type: "DOUBLE"}},
		Dataset: [][]any{
			{"BTC", 65000.5},
			{"ETH", nil},
		},
		Count: 2,
	}
}

func TestResultSetAccessors(t *testing.T) {
	rs := sampleResult()

	assert.Equal(t, 1, rs.Index("price"))
	assert.Equal(t, -1, rs.Index("volume"))
	assert.True(t, rs.HasColumn("symbol"))
	assert.Equal(t, []string{"symbol", "price"}, rs.ColumnNames())
	assert.Equal(t, 2, rs.Len())

	v, ok := rs.Float(0, "price")
	assert.True(t, ok)
	assert.Equal(t, 65000.5, v)

	_, ok = rs.Float(1, "price")
	assert.False(t, ok, "null is not a number")

	assert.Equal(t, "BTC", rs.String(0, "symbol"))
	assert.Equal(t, "", rs.String(1, "price"))
	assert.Nil(t, rs.Value(5, "price"))

	rows := rs.Rows()
	assert.Len(t, rows, 2)
	assert.Equal(t, "ETH", rows[1]["symbol"])
}

func TestResultSetStringFloats(t *testing.T) {
	rs := &ResultSet{
		Columns: []Column{{Name: "v"}},
		Dataset: [][]any{{65000000.0}, {1.3e12}, {0.000125}, {float32(2.5)}, {int64(7)}},
		Count:   5,
	}

	assert.Equal(t, "65000000", rs.String(0, "v"))
	assert.Equal(t, "1300000000000", rs.String(1, "v"))
	assert.Equal(t, "0.000125", rs.String(2, "v"))
	assert.Equal(t, "2.5", rs.String(3, "v"))
	assert.Equal(t, "7", rs.String(4, "v"))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{1.5, 1.5, true},
		{int64(3), 3, true},
		{json.Number("2.25"), 2.25, true},
		{"4.5", 4.5, true},
		{[]byte("7"), 7, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := ToFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestQuoteSpread(t *testing.T) {
	assert.Equal(t, 2.0, QuoteSpread(99, 101))
	assert.Equal(t, 0.0, QuoteSpread(0, 101))
	assert.Equal(t, 0.0, QuoteSpread(99, 0))
}

func TestTimeRangeDuration(t *testing.T) {
	assert.Equal(t, 15*time.Minute, RangeLatest.Duration())
	assert.Equal(t, time.Hour, RangeHour.Duration())
	assert.Equal(t, 24*time.Hour, RangeDay.Duration())
	assert.Equal(t, 7*24*time.Hour, RangeWeek.Duration())
}
