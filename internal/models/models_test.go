package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOnlyWireFormat(t *testing.T) {
	d, err := ParseDate("2026-09-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-15", d.String())

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-09-15"`, string(data))

	_, err = ParseDate("15.09.2026")
	assert.Error(t, err)
}

func TestDateOnlyToleratesTimestamps(t *testing.T) {
	var d DateOnly
	require.NoError(t, json.Unmarshal([]byte(`"2026-09-15T00:00:00"`), &d))
	assert.Equal(t, "2026-09-15", d.String())

	require.NoError(t, json.Unmarshal([]byte(`""`), &d))
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())
}

func TestDateOf(t *testing.T) {
	d := DateOf(time.Date(2026, 9, 15, 23, 45, 0, 0, time.Local))
	assert.Equal(t, "2026-09-15", d.String())
}

func TestSearchCriteriaQuery(t *testing.T) {
	criteria := SearchCriteria{
		StartDate: NewDate(2026, 9, 15),
		EndDate:   NewDate(2026, 9, 18),
		Capacity:  2,
		View:      "Sea",
		MaxPrice:  199.5,
	}

	q := criteria.Query()
	assert.Equal(t, "2026-09-15", q.Get("start_date"))
	assert.Equal(t, "2026-09-18", q.Get("end_date"))
	assert.Equal(t, "2", q.Get("capacity"))
	// Фильтр по виду уходит на бэкенд под ключом area
	assert.Equal(t, "Sea", q.Get("area"))
	assert.Equal(t, "199.5", q.Get("max_price"))

	_, hasChain := q["hotel_chain"]
	assert.False(t, hasChain)
	_, hasCategory := q["hotel_category"]
	assert.False(t, hasCategory)
}

func TestRoomViewLabel(t *testing.T) {
	assert.Equal(t, "Sea", Room{View: "Sea"}.ViewLabel())
	assert.Equal(t, "Center", Room{Area: "Center"}.ViewLabel())
	assert.Equal(t, "Sea", Room{View: "Sea", Area: "Center"}.ViewLabel())
	assert.Equal(t, "", Room{}.ViewLabel())
}

func TestRoomDecodesBothViewKeys(t *testing.T) {
	var room Room
	require.NoError(t, json.Unmarshal([]byte(`{"roomid": 7, "area": "Center"}`), &room))
	assert.Equal(t, "Center", room.ViewLabel())

	require.NoError(t, json.Unmarshal([]byte(`{"roomid": 7, "view": "Sea"}`), &room))
	assert.Equal(t, "Sea", room.View)
}

func TestSessionTempData(t *testing.T) {
	s := &Session{UserID: 7}
	s.Set("room_id", int64(12))
	s.Set("start_date", "2026-09-15")

	assert.Equal(t, int64(12), s.GetInt64("room_id"))
	assert.Equal(t, "2026-09-15", s.GetDate("start_date").String())
	assert.Zero(t, s.GetInt64("missing"))

	// После JSON-роундтрипа числа приходят как float64
	data, err := json.Marshal(s)
	require.NoError(t, err)
	var restored Session
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, int64(12), restored.GetInt64("room_id"))
}
