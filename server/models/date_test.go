package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateUnmarshalAcceptsDayAndTimestamp(t *testing.T) {
	var d Date
	assert.Nil(t, json.Unmarshal([]byte(`"1990-05-20"`), &d))
	assert.Equal(t, "1990-05-20", d.String())

	assert.Nil(t, json.Unmarshal([]byte(`"1990-05-20T14:30:00Z"`), &d))
	assert.Equal(t, "1990-05-20", d.String())
}

func TestDateMarshal(t *testing.T) {
	out, err := json.Marshal(NewDate(1990, 5, 20))
	assert.Nil(t, err)
	assert.Equal(t, `"1990-05-20"`, string(out))
}

func TestDateSameDayIgnoresTimeOfDay(t *testing.T) {
	day := NewDate(1990, 5, 20)
	sameDayEvening := Date{Time: time.Date(1990, 5, 20, 23, 59, 59, 0, time.UTC)}
	nextDay := NewDate(1990, 5, 21)

	assert.True(t, day.SameDay(sameDayEvening))
	assert.False(t, day.SameDay(nextDay))
}

func TestDateUTCDayBounds(t *testing.T) {
	start, end := NewDate(1990, 5, 20).UTCDayBounds()
	assert.Equal(t, time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(1990, 5, 21, 0, 0, 0, 0, time.UTC), end)
}
