// Package flow implements the client-local booking flow: the state machine
// from search through confirmation, the session context, and the ordering
// guarantees around overlapping requests. It owns no rendering; front ends
// dispatch intents into it and read its state back.
package flow

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"roomscout/internal/events"
	"roomscout/internal/metrics"
	"roomscout/internal/models"
	"roomscout/internal/validate"

	"github.com/rs/zerolog"
)

// State is the client-local position in the booking flow.
type State string

const (
	StateIdle           State = "idle"
	StateSearching      State = "searching"
	StateResultsShown   State = "results_shown"
	StateBookingPending State = "booking_pending"
	StateConfirmed      State = "confirmed"
	StateFailed         State = "failed"
)

// API is the slice of the backend client the flow drives.
type API interface {
	SearchRooms(ctx context.Context, criteria models.SearchCriteria) ([]models.Room, error)
	CreateCustomer(ctx context.Context, form models.CustomerForm) (*models.Customer, error)
	CreateBooking(ctx context.Context, roomID, customerID int64, start, end models.DateOnly) (*models.Booking, error)
	CreateRenting(ctx context.Context, roomID, customerID, employeeID int64, start, end models.DateOnly) (*models.Renting, error)
	CustomerBookings(ctx context.Context, customerID int64) ([]models.Booking, error)
	CustomerRentings(ctx context.Context, customerID int64) ([]models.Renting, error)
}

// Session is the flow's explicit session context: one per page session,
// passed to the controller instead of living in globals.
type Session struct {
	CustomerID int64
	EmployeeID int64
	IsStaff    bool
}

// Controller runs one booking flow. All exported methods are safe for
// concurrent use; mutating operations are serialized by an in-flight guard
// so a double submission never issues two requests.
type Controller struct {
	api    API
	bus    *events.EventBus
	logger *zerolog.Logger
	now    func() time.Time

	requireExplicitCustomerID bool

	seq atomic.Uint64

	mu       sync.Mutex
	state    State
	session  Session
	rooms    []models.Room
	criteria models.SearchCriteria
	lastErr  error
	inFlight bool
	bookings []models.Booking
	rentings []models.Renting
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the validation clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithExplicitCustomerID makes confirmation demand an explicitly entered
// customer id even when the session already has one.
func WithExplicitCustomerID() Option {
	return func(c *Controller) { c.requireExplicitCustomerID = true }
}

// NewController builds an idle flow for one session.
func NewController(api API, bus *events.EventBus, logger *zerolog.Logger, opts ...Option) *Controller {
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}
	if bus == nil {
		bus = events.NewEventBus()
	}

	c := &Controller{
		api:    api,
		bus:    bus,
		logger: logger,
		now:    time.Now,
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Rooms returns the currently displayed results.
func (c *Controller) Rooms() []models.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Room(nil), c.rooms...)
}

// Criteria returns the criteria of the applied search.
func (c *Controller) Criteria() models.SearchCriteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// Err returns the error attached for display, if any. It persists until
// the next action or acknowledgment.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Session returns a snapshot of the session context.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetCustomer records the session's active customer id.
func (c *Controller) SetCustomer(customerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.CustomerID = customerID
}

// SetStaff marks the session as staff-operated with the given employee id.
func (c *Controller) SetStaff(employeeID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.IsStaff = true
	c.session.EmployeeID = employeeID
}

// Bookings returns the last refreshed booking list.
func (c *Controller) Bookings() []models.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Booking(nil), c.bookings...)
}

// Rentings returns the last refreshed renting list.
func (c *Controller) Rentings() []models.Renting {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Renting(nil), c.rentings...)
}

// Search validates and submits a search. Only the response to the most
// recently issued search is applied; superseded responses are discarded
// and reported as ErrSuperseded. An empty result list is a normal outcome.
func (c *Controller) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Room, error) {
	if err := validate.SearchWindow(criteria.StartDate, criteria.EndDate, c.now()); err != nil {
		c.fail(err)
		return nil, err
	}

	seq := c.seq.Add(1)

	c.mu.Lock()
	c.state = StateSearching
	c.lastErr = nil
	c.rooms = nil
	c.mu.Unlock()

	rooms, err := c.api.SearchRooms(ctx, criteria)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq.Load() {
		metrics.IncStaleSearch()
		c.logger.Debug().Uint64("sequence", seq).Msg("discarding superseded search response")
		return nil, ErrSuperseded
	}

	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		return nil, err
	}

	c.rooms = rooms
	c.criteria = criteria
	c.state = StateResultsShown

	_ = c.bus.PublishJSON(events.EventSearchCompleted, events.SearchEventPayload{
		Sequence:  seq,
		RoomCount: len(rooms),
		StartDate: criteria.StartDate.String(),
		EndDate:   criteria.EndDate.String(),
	})
	return rooms, nil
}

// RegisterCustomer validates the form, creates the customer and makes it
// the session's active customer.
func (c *Controller) RegisterCustomer(ctx context.Context, form models.CustomerForm) (*models.Customer, error) {
	if err := validate.CustomerForm(form); err != nil {
		c.fail(err)
		return nil, err
	}

	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	customer, err := c.api.CreateCustomer(ctx, form)
	if err != nil {
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	c.session.CustomerID = customer.CustomerID
	c.lastErr = nil
	c.mu.Unlock()

	_ = c.bus.PublishJSON(events.EventCustomerCreated, customer)
	return customer, nil
}

// ConfirmStay books the selected room for the resolved customer, as a
// renting when the session is staff-operated. explicitCustomerID overrides
// the session customer and is mandatory when the controller was built with
// WithExplicitCustomerID. On success the customer's stay lists refresh and
// the flow lands in Confirmed; on a backend rejection it lands in Failed
// with BookingPending exited, ready to retry from the same results.
func (c *Controller) ConfirmStay(ctx context.Context, roomID int64, explicitCustomerID int64) error {
	c.mu.Lock()
	if c.state != StateResultsShown {
		c.mu.Unlock()
		return ErrNotReady
	}
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}

	customerID := c.session.CustomerID
	if c.requireExplicitCustomerID || explicitCustomerID > 0 {
		customerID = explicitCustomerID
	}
	if customerID <= 0 {
		c.mu.Unlock()
		return ErrNoCustomer
	}

	isStaff := c.session.IsStaff
	employeeID := c.session.EmployeeID
	if isStaff && employeeID <= 0 {
		c.mu.Unlock()
		return ErrNoEmployee
	}

	start, end := c.criteria.StartDate, c.criteria.EndDate
	c.inFlight = true
	c.state = StateBookingPending
	c.lastErr = nil
	room := c.roomByIDLocked(roomID)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	var payload events.StayEventPayload
	var eventType string

	if isStaff {
		renting, err := c.api.CreateRenting(ctx, roomID, customerID, employeeID, start, end)
		if err != nil {
			c.failPending(err)
			return err
		}
		eventType = events.EventRentingConfirmed
		payload = events.StayEventPayload{
			RecordID:   renting.RentingID,
			Kind:       "renting",
			RoomID:     renting.RoomID,
			CustomerID: renting.CustomerID,
			EmployeeID: renting.EmployeeID,
			StartDate:  renting.StartDate.String(),
			EndDate:    renting.EndDate.String(),
			Status:     renting.Status,
		}
	} else {
		booking, err := c.api.CreateBooking(ctx, roomID, customerID, start, end)
		if err != nil {
			c.failPending(err)
			return err
		}
		eventType = events.EventBookingConfirmed
		payload = events.StayEventPayload{
			RecordID:   booking.BookingID,
			Kind:       "booking",
			RoomID:     booking.RoomID,
			CustomerID: booking.CustomerID,
			StartDate:  booking.StartDate.String(),
			EndDate:    booking.EndDate.String(),
			Status:     booking.Status,
		}
	}

	if room != nil {
		payload.HotelName = room.HotelName
		payload.Price = room.Price
	}
	payload.OccurredAt = c.now()

	c.mu.Lock()
	c.state = StateConfirmed
	c.mu.Unlock()

	_ = c.bus.PublishJSON(eventType, payload)

	c.RefreshStays(ctx, customerID)
	return nil
}

// RefreshStays fetches the customer's bookings and rentings concurrently.
// The two reads are independent: each list is populated regardless of the
// other's success or failure.
func (c *Controller) RefreshStays(ctx context.Context, customerID int64) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		bookings, err := c.api.CustomerBookings(ctx, customerID)
		if err != nil {
			c.logger.Warn().Err(err).Int64("customer_id", customerID).Msg("bookings refresh failed")
			return
		}
		c.mu.Lock()
		c.bookings = bookings
		c.mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		rentings, err := c.api.CustomerRentings(ctx, customerID)
		if err != nil {
			c.logger.Warn().Err(err).Int64("customer_id", customerID).Msg("rentings refresh failed")
			return
		}
		c.mu.Lock()
		c.rentings = rentings
		c.mu.Unlock()
	}()

	wg.Wait()
}

// Acknowledge exits a soft terminal state: Confirmed and Failed return to
// ResultsShown when results are on screen, otherwise to Idle. The flow is
// re-enterable indefinitely within one session.
func (c *Controller) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConfirmed && c.state != StateFailed {
		return
	}

	c.lastErr = nil
	if len(c.rooms) > 0 {
		c.state = StateResultsShown
	} else {
		c.state = StateIdle
	}
}

// Reset returns the flow to Idle, dropping results and errors but keeping
// the session context.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.rooms = nil
	c.lastErr = nil
}

func (c *Controller) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrBusy
	}
	c.inFlight = true
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.state = StateFailed
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Controller) failPending(err error) {
	c.fail(err)
	_ = c.bus.PublishJSON(events.EventBookingFailed, map[string]string{
		"message": DisplayMessage(err),
	})
}

func (c *Controller) roomByIDLocked(roomID int64) *models.Room {
	for i := range c.rooms {
		if c.rooms[i].RoomID == roomID {
			return &c.rooms[i]
		}
	}
	return nil
}
