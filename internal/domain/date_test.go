package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1990-06-15")
	require.NoError(t, err)
	assert.Equal(t, 1990, d.Year())
	assert.Equal(t, time.June, d.Month())
	assert.Equal(t, 15, d.Day())
	assert.Equal(t, "1990-06-15", d.String())

	_, err = ParseDate("15/06/1990")
	assert.Error(t, err)
}

func TestDateOfIgnoresClockTime(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	d := DateOf(time.Date(2024, 3, 1, 23, 30, 0, 0, loc))
	assert.Equal(t, "2024-03-01", d.String())
	assert.True(t, d == NewDate(2024, time.March, 1))
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2024-02-28")
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, 2, d.AddDays(2).DaysSince(d))
	assert.Equal(t, -2, d.DaysSince(d.AddDays(2)))
	assert.True(t, d.Before(d.AddDays(1)))
}

func TestDateSupportedRange(t *testing.T) {
	assert.True(t, MinSupportedDate.InSupportedRange())
	assert.True(t, MaxSupportedDate.InSupportedRange())
	assert.False(t, MinSupportedDate.AddDays(-1).InSupportedRange())
	assert.False(t, MaxSupportedDate.AddDays(1).InSupportedRange())
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}
	data, err := json.Marshal(wrapper{D: MustParseDate("2024-03-01")})
	require.NoError(t, err)
	assert.Equal(t, `{"d":"2024-03-01"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal(data, &w))
	assert.Equal(t, "2024-03-01", w.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":""}`), &w))
	assert.True(t, w.D.IsZero())
}
