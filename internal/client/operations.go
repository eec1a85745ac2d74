package client

import (
	"context"
	"fmt"
	"time"

	"roomscout/internal/metrics"
	"roomscout/internal/models"
)

type bookingRequest struct {
	RoomID     int64           `json:"room_id"`
	CustomerID int64           `json:"customer_id"`
	StartDate  models.DateOnly `json:"start_date"`
	EndDate    models.DateOnly `json:"end_date"`
}

type rentingRequest struct {
	RoomID     int64           `json:"room_id"`
	CustomerID int64           `json:"customer_id"`
	EmployeeID int64           `json:"employee_id"`
	StartDate  models.DateOnly `json:"start_date"`
	EndDate    models.DateOnly `json:"end_date"`
}

// SearchRooms returns rooms free for the whole window matching the optional
// filters. An empty slice is a normal outcome, not an error.
func (c *Client) SearchRooms(ctx context.Context, criteria models.SearchCriteria) ([]models.Room, error) {
	endpoint := c.endpoint(c.paths.availableRooms) + "?" + criteria.Query().Encode()

	start := time.Now()
	var rooms []models.Room
	if err := c.doGet(ctx, "search_rooms", endpoint, &rooms); err != nil {
		return nil, err
	}
	metrics.ObserveSearch(time.Since(start).Seconds())
	return rooms, nil
}

// ListHotelChains fetches the chain picker entries, cached when Redis is
// configured.
func (c *Client) ListHotelChains(ctx context.Context) ([]models.HotelChain, error) {
	var chains []models.HotelChain
	err := c.cachedGet(ctx, "list_hotel_chains", c.endpoint("/api/hotel-chains"), "ref:hotel_chains", &chains)
	if err != nil {
		return nil, err
	}
	return chains, nil
}

// ListHotels fetches hotels, optionally narrowed by chain and star category.
func (c *Client) ListHotels(ctx context.Context, chainID int64, category int) ([]models.Hotel, error) {
	q := intQuery(map[string]int64{"chain_id": chainID, "category": int64(category)})
	endpoint := c.endpoint("/api/hotels")
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var hotels []models.Hotel
	cacheKey := fmt.Sprintf("ref:hotels:%d:%d", chainID, category)
	if err := c.cachedGet(ctx, "list_hotels", endpoint, cacheKey, &hotels); err != nil {
		return nil, err
	}
	return hotels, nil
}

// ListEmployees fetches employees, optionally for one hotel. Used by the
// staff renting flow.
func (c *Client) ListEmployees(ctx context.Context, hotelID int64) ([]models.Employee, error) {
	endpoint := c.endpoint("/api/employees")
	if q := intQuery(map[string]int64{"hotel_id": hotelID}); len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var employees []models.Employee
	cacheKey := fmt.Sprintf("ref:employees:%d", hotelID)
	if err := c.cachedGet(ctx, "list_employees", endpoint, cacheKey, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// CreateCustomer registers a customer and returns the record with the
// backend-assigned id.
func (c *Client) CreateCustomer(ctx context.Context, form models.CustomerForm) (*models.Customer, error) {
	var resp struct {
		CustomerID int64 `json:"customerid"`
	}
	err := c.doJSON(ctx, "create_customer", "POST", c.endpoint("/api/customers"), form, &resp)
	if err != nil {
		return nil, err
	}

	return &models.Customer{
		CustomerID: resp.CustomerID,
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Address:    form.Address,
	}, nil
}

// UpdateCustomer overwrites a customer's fields.
func (c *Client) UpdateCustomer(ctx context.Context, customerID int64, form models.CustomerForm) error {
	endpoint := c.endpoint(fmt.Sprintf("/api/customers/%d", customerID))
	return c.doJSON(ctx, "update_customer", "PUT", endpoint, form, nil)
}

// DeleteCustomer removes a customer record.
func (c *Client) DeleteCustomer(ctx context.Context, customerID int64) error {
	endpoint := c.endpoint(fmt.Sprintf("/api/customers/%d", customerID))
	return c.doDelete(ctx, "delete_customer", endpoint)
}

// CreateBooking books a room for an existing customer. The backend replies
// with just the new id; the remaining fields are filled from the request.
func (c *Client) CreateBooking(ctx context.Context, roomID, customerID int64, start, end models.DateOnly) (*models.Booking, error) {
	body := bookingRequest{RoomID: roomID, CustomerID: customerID, StartDate: start, EndDate: end}

	var resp struct {
		BookingID int64 `json:"bookingid"`
	}
	if err := c.doJSON(ctx, "create_booking", "POST", c.endpoint("/api/bookings"), body, &resp); err != nil {
		return nil, err
	}

	return &models.Booking{
		BookingID:  resp.BookingID,
		RoomID:     roomID,
		CustomerID: customerID,
		StartDate:  start,
		EndDate:    end,
		Status:     models.StatusConfirmed,
	}, nil
}

// CreateRenting checks a customer in on behalf of a staff member.
func (c *Client) CreateRenting(ctx context.Context, roomID, customerID, employeeID int64, start, end models.DateOnly) (*models.Renting, error) {
	body := rentingRequest{RoomID: roomID, CustomerID: customerID, EmployeeID: employeeID, StartDate: start, EndDate: end}

	var resp struct {
		RentingID int64 `json:"rentingid"`
	}
	if err := c.doJSON(ctx, "create_renting", "POST", c.endpoint("/api/rentings"), body, &resp); err != nil {
		return nil, err
	}

	return &models.Renting{
		RentingID:  resp.RentingID,
		RoomID:     roomID,
		CustomerID: customerID,
		EmployeeID: employeeID,
		StartDate:  start,
		EndDate:    end,
		Status:     models.StatusCheckedIn,
	}, nil
}

// CustomerBookings lists a customer's bookings.
func (c *Client) CustomerBookings(ctx context.Context, customerID int64) ([]models.Booking, error) {
	endpoint := c.endpoint(fmt.Sprintf("/api/customers/%d/bookings", customerID))
	var bookings []models.Booking
	if err := c.doGet(ctx, "customer_bookings", endpoint, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CustomerRentings lists a customer's rentings.
func (c *Client) CustomerRentings(ctx context.Context, customerID int64) ([]models.Renting, error) {
	endpoint := c.endpoint(fmt.Sprintf("/api/customers/%d/rentings", customerID))
	var rentings []models.Renting
	if err := c.doGet(ctx, "customer_rentings", endpoint, &rentings); err != nil {
		return nil, err
	}
	return rentings, nil
}

// RoomCapacityView returns the per-hotel capacity aggregate view.
func (c *Client) RoomCapacityView(ctx context.Context) ([]models.RoomCapacitySummary, error) {
	var rows []models.RoomCapacitySummary
	if err := c.doGet(ctx, "room_capacity_view", c.endpoint("/api/views/room-capacity"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// RoomAreaView returns available rooms aggregated by area.
func (c *Client) RoomAreaView(ctx context.Context) ([]models.RoomAreaSummary, error) {
	var rows []models.RoomAreaSummary
	if err := c.doGet(ctx, "room_area_view", c.endpoint("/api/views/room-area"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
