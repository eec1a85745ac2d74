package flow

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"roomscout/internal/client"
	"roomscout/internal/events"
	"roomscout/internal/models"
	"roomscout/internal/validate"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu            sync.Mutex
	searchCalls   int
	searchFn      func(criteria models.SearchCriteria) ([]models.Room, error)
	createBooking func(roomID, customerID int64) (*models.Booking, error)
	createRenting func(roomID, customerID, employeeID int64) (*models.Renting, error)
	bookings      []models.Booking
	rentings      []models.Renting
	bookingsErr   error
	rentingsErr   error
}

func (f *fakeAPI) SearchRooms(ctx context.Context, criteria models.SearchCriteria) ([]models.Room, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()
	if f.searchFn != nil {
		return f.searchFn(criteria)
	}
	return nil, nil
}

func (f *fakeAPI) CreateCustomer(ctx context.Context, form models.CustomerForm) (*models.Customer, error) {
	return &models.Customer{CustomerID: 42, FirstName: form.FirstName, LastName: form.LastName, Address: form.Address}, nil
}

func (f *fakeAPI) CreateBooking(ctx context.Context, roomID, customerID int64, start, end models.DateOnly) (*models.Booking, error) {
	if f.createBooking != nil {
		return f.createBooking(roomID, customerID)
	}
	return &models.Booking{BookingID: 100, RoomID: roomID, CustomerID: customerID, StartDate: start, EndDate: end, Status: models.StatusConfirmed}, nil
}

func (f *fakeAPI) CreateRenting(ctx context.Context, roomID, customerID, employeeID int64, start, end models.DateOnly) (*models.Renting, error) {
	if f.createRenting != nil {
		return f.createRenting(roomID, customerID, employeeID)
	}
	return &models.Renting{RentingID: 200, RoomID: roomID, CustomerID: customerID, EmployeeID: employeeID, StartDate: start, EndDate: end, Status: models.StatusCheckedIn}, nil
}

func (f *fakeAPI) CustomerBookings(ctx context.Context, customerID int64) ([]models.Booking, error) {
	return f.bookings, f.bookingsErr
}

func (f *fakeAPI) CustomerRentings(ctx context.Context, customerID int64) ([]models.Renting, error) {
	return f.rentings, f.rentingsErr
}

func (f *fakeAPI) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

var testClock = func() time.Time {
	return time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
}

func date(t *testing.T, s string) models.DateOnly {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func validCriteria(t *testing.T) models.SearchCriteria {
	return models.SearchCriteria{
		StartDate: date(t, "2026-09-15"),
		EndDate:   date(t, "2026-09-18"),
	}
}

func newTestController(api API, opts ...Option) *Controller {
	logger := zerolog.New(io.Discard)
	opts = append([]Option{WithClock(testClock)}, opts...)
	return NewController(api, events.NewEventBus(), &logger, opts...)
}

func TestSearchResultsShown(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(models.SearchCriteria) ([]models.Room, error) {
			return []models.Room{{RoomID: 7, HotelName: "Grand", Price: 120}}, nil
		},
	}
	c := newTestController(api)

	rooms, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, StateResultsShown, c.State())
}

// Пустой результат — это нормальный исход, не ошибка.
func TestSearchEmptyResultsIsNotFailure(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api)

	rooms, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.Equal(t, StateResultsShown, c.State())
	assert.NoError(t, c.Err())
}

func TestSearchValidationSkipsNetwork(t *testing.T) {
	api := &fakeAPI{}
	c := newTestController(api)

	criteria := models.SearchCriteria{EndDate: date(t, "2026-09-18")}
	_, err := c.Search(context.Background(), criteria)

	var vErr *validate.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, validate.ReasonMissingField, vErr.Reason)
	assert.Equal(t, 0, api.searchCount(), "validation failure must not issue a request")
	assert.Equal(t, StateFailed, c.State())
}

func TestSearchPastStartDate(t *testing.T) {
	c := newTestController(&fakeAPI{})

	criteria := models.SearchCriteria{
		StartDate: date(t, "2026-09-09"),
		EndDate:   date(t, "2026-09-18"),
	}
	_, err := c.Search(context.Background(), criteria)

	var vErr *validate.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, validate.ReasonPastStartDate, vErr.Reason)
}

// Ответ на устаревший поиск отбрасывается: применяются только результаты
// самого свежего запроса.
func TestStaleSearchDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})

	api := &fakeAPI{}
	api.searchFn = func(criteria models.SearchCriteria) ([]models.Room, error) {
		if criteria.Capacity == 1 {
			close(firstStarted)
			<-release
			return []models.Room{{RoomID: 1}}, nil
		}
		return []models.Room{{RoomID: 2}}, nil
	}
	c := newTestController(api)

	first := validCriteria(t)
	first.Capacity = 1
	second := validCriteria(t)
	second.Capacity = 2

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = c.Search(context.Background(), first)
	}()

	<-firstStarted
	rooms, err := c.Search(context.Background(), second)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(2), rooms[0].RoomID)

	close(release)
	wg.Wait()

	assert.ErrorIs(t, firstErr, ErrSuperseded)

	got := c.Rooms()
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].RoomID, "stale response must not overwrite newer results")
	assert.Equal(t, StateResultsShown, c.State())
}

func TestConfirmStayBooking(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(models.SearchCriteria) ([]models.Room, error) {
			return []models.Room{{RoomID: 7, HotelName: "Grand", Price: 120}}, nil
		},
		bookings: []models.Booking{{BookingID: 100, RoomID: 7}},
	}

	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	var published []events.StayEventPayload
	bus.Subscribe(events.EventBookingConfirmed, func(ev *events.Event) error {
		var p events.StayEventPayload
		require.NoError(t, json.Unmarshal(ev.Payload, &p))
		published = append(published, p)
		return nil
	})

	c := NewController(api, bus, &logger, WithClock(testClock))
	c.SetCustomer(42)

	_, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)

	require.NoError(t, c.ConfirmStay(context.Background(), 7, 0))
	assert.Equal(t, StateConfirmed, c.State())

	require.Len(t, published, 1)
	assert.Equal(t, int64(100), published[0].RecordID)
	assert.Equal(t, "booking", published[0].Kind)
	assert.Equal(t, "Grand", published[0].HotelName)
	assert.InDelta(t, 120, published[0].Price, 0.001)

	assert.Len(t, c.Bookings(), 1)
}

func TestConfirmStayStaffCreatesRenting(t *testing.T) {
	var rentingEmployee int64
	api := &fakeAPI{
		searchFn: func(models.SearchCriteria) ([]models.Room, error) {
			return []models.Room{{RoomID: 7}}, nil
		},
		createRenting: func(roomID, customerID, employeeID int64) (*models.Renting, error) {
			rentingEmployee = employeeID
			return &models.Renting{RentingID: 200, RoomID: roomID, CustomerID: customerID, EmployeeID: employeeID, Status: models.StatusCheckedIn}, nil
		},
	}
	c := newTestController(api)
	c.SetCustomer(42)
	c.SetStaff(5)

	_, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)

	require.NoError(t, c.ConfirmStay(context.Background(), 7, 0))
	assert.Equal(t, int64(5), rentingEmployee)
	assert.Equal(t, StateConfirmed, c.State())
}

func TestConfirmStayRejectedThenRetryable(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(models.SearchCriteria) ([]models.Room, error) {
			return []models.Room{{RoomID: 7}}, nil
		},
		createBooking: func(roomID, customerID int64) (*models.Booking, error) {
			return nil, client.NewRemoteError(409, "Room is not available")
		},
	}
	c := newTestController(api)
	c.SetCustomer(42)

	_, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)

	err = c.ConfirmStay(context.Background(), 7, 0)
	require.Error(t, err)
	assert.Equal(t, "Room is not available", DisplayMessage(err))
	assert.Equal(t, StateFailed, c.State())

	// После подтверждения ошибки можно бронировать из тех же результатов
	c.Acknowledge()
	assert.Equal(t, StateResultsShown, c.State())
	require.NoError(t, c.ConfirmStay(context.Background(), 7, 0))
	assert.Equal(t, StateConfirmed, c.State())
}

func TestConfirmStayRequiresSearch(t *testing.T) {
	c := newTestController(&fakeAPI{})
	c.SetCustomer(42)
	assert.ErrorIs(t, c.ConfirmStay(context.Background(), 7, 0), ErrNotReady)
}

func TestConfirmStayRequiresCustomer(t *testing.T) {
	api := &fakeAPI{
		searchFn: func(models.SearchCriteria) ([]models.Room, error) {
			return []models.Room{{RoomID: 7}}, nil
		},
	}
	c := newTestController(api)

	_, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)

	assert.ErrorIs(t, c.ConfirmStay(context.Background(), 7, 0), ErrNoCustomer)
}

func TestExplicitCustomerIDOverridesSession(t *testing.T) {
	var bookedCustomer int64
	api := &fakeAPI{
		searchFn: func(models.SearchCriteria) ([]models.Room, error) {
			return []models.Room{{RoomID: 7}}, nil
		},
		createBooking: func(roomID, customerID int64) (*models.Booking, error) {
			bookedCustomer = customerID
			return &models.Booking{BookingID: 100, RoomID: roomID, CustomerID: customerID}, nil
		},
	}
	c := newTestController(api, WithExplicitCustomerID())
	c.SetCustomer(42)

	_, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)

	// Сессионный клиент игнорируется: нужен явный ввод
	assert.ErrorIs(t, c.ConfirmStay(context.Background(), 7, 0), ErrNoCustomer)

	require.NoError(t, c.ConfirmStay(context.Background(), 7, 99))
	assert.Equal(t, int64(99), bookedCustomer)
}

func TestConfirmStayBusyGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	api := &fakeAPI{
		searchFn: func(models.SearchCriteria) ([]models.Room, error) {
			return []models.Room{{RoomID: 7}, {RoomID: 8}}, nil
		},
		createBooking: func(roomID, customerID int64) (*models.Booking, error) {
			close(started)
			<-release
			return &models.Booking{BookingID: 100, RoomID: roomID, CustomerID: customerID}, nil
		},
	}
	c := newTestController(api)
	c.SetCustomer(42)

	_, err := c.Search(context.Background(), validCriteria(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.ConfirmStay(context.Background(), 7, 0)
	}()

	<-started
	err = c.ConfirmStay(context.Background(), 8, 0)
	assert.Error(t, err)
	// Либо занято, либо состояние уже BookingPending
	assert.True(t, errors.Is(err, ErrBusy) || errors.Is(err, ErrNotReady))

	close(release)
	wg.Wait()
}

func TestRefreshStaysIndependence(t *testing.T) {
	api := &fakeAPI{
		bookings:    []models.Booking{{BookingID: 100}},
		rentingsErr: client.NewRemoteError(500, "boom"),
	}
	c := newTestController(api)

	c.RefreshStays(context.Background(), 42)

	assert.Len(t, c.Bookings(), 1, "bookings load despite rentings failure")
	assert.Empty(t, c.Rentings())
}

func TestAcknowledgeWithoutResultsReturnsToIdle(t *testing.T) {
	c := newTestController(&fakeAPI{})

	_, err := c.Search(context.Background(), models.SearchCriteria{})
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.State())

	c.Acknowledge()
	assert.Equal(t, StateIdle, c.State())
	assert.NoError(t, c.Err())
}

func TestRegisterCustomerSetsSession(t *testing.T) {
	c := newTestController(&fakeAPI{})

	customer, err := c.RegisterCustomer(context.Background(), models.CustomerForm{
		FirstName: "Анна",
		LastName:  "Петрова",
		Address:   "Невский 1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), customer.CustomerID)
	assert.Equal(t, int64(42), c.Session().CustomerID)
}

func TestRegisterCustomerValidation(t *testing.T) {
	c := newTestController(&fakeAPI{})

	_, err := c.RegisterCustomer(context.Background(), models.CustomerForm{FirstName: "Анна"})
	var vErr *validate.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "last name", vErr.Field)
}

func TestDisplayMessage(t *testing.T) {
	assert.Equal(t, "", DisplayMessage(nil))
	assert.Equal(t, "Room is not available", DisplayMessage(client.NewRemoteError(409, "Room is not available")))
	assert.Equal(t, "could not reach the booking service",
		DisplayMessage(&client.NetworkError{Operation: "search_rooms", Err: errors.New("dial tcp")}))
	assert.Equal(t, "the server returned an unexpected response",
		DisplayMessage(&client.DecodeError{Operation: "search_rooms", Err: errors.New("bad json")}))
}
