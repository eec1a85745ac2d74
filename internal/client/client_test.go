package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roomscout/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func date(t *testing.T, s string) models.DateOnly {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestSearchRoomsQueryParameters(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"roomid": 7, "hotelid": 2, "price": 120.5, "area": "Center", "capacity": 3, "hotel_name": "Grand", "chain_name": "Stars"}]`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())

	criteria := models.SearchCriteria{
		StartDate:     date(t, "2026-09-15"),
		EndDate:       date(t, "2026-09-18"),
		Capacity:      2,
		View:          "Sea",
		HotelChain:    "Stars",
		HotelCategory: 4,
		MaxPrice:      200,
	}

	rooms, err := c.SearchRooms(context.Background(), criteria)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	assert.Equal(t, "/api/rooms/available", gotPath)
	assert.Equal(t, []string{"2026-09-15"}, gotQuery["start_date"])
	assert.Equal(t, []string{"2026-09-18"}, gotQuery["end_date"])
	assert.Equal(t, []string{"2"}, gotQuery["capacity"])
	assert.Equal(t, []string{"Sea"}, gotQuery["area"])
	assert.Equal(t, []string{"Stars"}, gotQuery["hotel_chain"])
	assert.Equal(t, []string{"4"}, gotQuery["hotel_category"])
	assert.Equal(t, []string{"200"}, gotQuery["max_price"])

	assert.Equal(t, int64(7), rooms[0].RoomID)
	assert.Equal(t, "Center", rooms[0].ViewLabel())
	assert.Equal(t, "Grand", rooms[0].HotelName)
}

func TestSearchRoomsOmitsUnsetFilters(t *testing.T) {
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())

	criteria := models.SearchCriteria{
		StartDate: date(t, "2026-09-15"),
		EndDate:   date(t, "2026-09-18"),
	}
	rooms, err := c.SearchRooms(context.Background(), criteria)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	assert.Contains(t, gotQuery, "start_date")
	assert.Contains(t, gotQuery, "end_date")
	assert.NotContains(t, gotQuery, "capacity")
	assert.NotContains(t, gotQuery, "area")
	assert.NotContains(t, gotQuery, "hotel_chain")
	assert.NotContains(t, gotQuery, "hotel_category")
	assert.NotContains(t, gotQuery, "max_price")
}

func TestLegacyPaths(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger(), WithLegacyPaths())
	_, err := c.SearchRooms(context.Background(), models.SearchCriteria{
		StartDate: date(t, "2026-09-15"),
		EndDate:   date(t, "2026-09-18"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/available-rooms", gotPath)
}

func TestRemoteErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Room is not available for the requested dates"}`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())
	_, err := c.CreateBooking(context.Background(), 7, 3, date(t, "2026-09-15"), date(t, "2026-09-18"))

	var rErr *RemoteError
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, http.StatusBadRequest, rErr.Status)
	assert.Equal(t, "Room is not available for the requested dates", rErr.Detail)
	assert.Equal(t, rErr.Detail, rErr.Error())
}

func TestRemoteErrorFallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`oops`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())
	_, err := c.ListHotelChains(context.Background())

	var rErr *RemoteError
	require.True(t, errors.As(err, &rErr))
	assert.Equal(t, http.StatusInternalServerError, rErr.Status)
	assert.Equal(t, "HTTP error 500", rErr.Detail)
}

func TestDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())
	_, err := c.CustomerBookings(context.Background(), 3)

	var dErr *DecodeError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, "customer_bookings", dErr.Operation)
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // соединение заведомо невозможно

	c := New(server.URL, testLogger())
	_, err := c.SearchRooms(context.Background(), models.SearchCriteria{
		StartDate: date(t, "2026-09-15"),
		EndDate:   date(t, "2026-09-18"),
	})

	var nErr *NetworkError
	require.True(t, errors.As(err, &nErr))
}

func TestRequestIDHeader(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())
	_, err := c.ListHotelChains(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, gotRequestID)
}

func TestCreateCustomer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/customers", r.URL.Path)
		_, _ = w.Write([]byte(`{"customerid": 42}`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())
	customer, err := c.CreateCustomer(context.Background(), models.CustomerForm{
		FirstName: "Анна",
		LastName:  "Петрова",
		Address:   "Невский 1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), customer.CustomerID)
	assert.Equal(t, "Анна", customer.FirstName)
}

func TestCreateRentingStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rentings", r.URL.Path)
		_, _ = w.Write([]byte(`{"rentingid": 11}`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger())
	renting, err := c.CreateRenting(context.Background(), 7, 3, 5, date(t, "2026-09-15"), date(t, "2026-09-18"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), renting.RentingID)
	assert.Equal(t, int64(5), renting.EmployeeID)
	assert.Equal(t, models.StatusCheckedIn, renting.Status)
}

func TestHotelChainsRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`[{"chainid": 1, "name": "Stars"}]`))
	}))
	defer server.Close()

	c := New(server.URL, testLogger(), WithRedisCache(redisClient, time.Minute))

	first, err := c.ListHotelChains(context.Background())
	require.NoError(t, err)
	second, err := c.ListHotelChains(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, hits, "second call should be served from cache")
}
