package models

import (
	"net/url"
	"strconv"
)

// SearchCriteria is one search submission. Zero-valued optional filters are
// left out of the query string entirely.
type SearchCriteria struct {
	StartDate     DateOnly
	EndDate       DateOnly
	Capacity      int
	View          string
	HotelChain    string
	HotelCategory int
	MaxPrice      float64
}

// Query serializes the criteria to the backend's query parameters. The view
// filter travels as "area", which is what the backend filters on.
func (c SearchCriteria) Query() url.Values {
	q := url.Values{}
	q.Set("start_date", c.StartDate.String())
	q.Set("end_date", c.EndDate.String())

	if c.Capacity > 0 {
		q.Set("capacity", strconv.Itoa(c.Capacity))
	}
	if c.View != "" {
		q.Set("area", c.View)
	}
	if c.HotelChain != "" {
		q.Set("hotel_chain", c.HotelChain)
	}
	if c.HotelCategory > 0 {
		q.Set("hotel_category", strconv.Itoa(c.HotelCategory))
	}
	if c.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(c.MaxPrice, 'f', -1, 64))
	}
	return q
}

// CustomerForm carries the registration/update fields.
type CustomerForm struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Address   string `json:"address"`
}
