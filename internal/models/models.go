package models

// HotelChain is a row of the chain picker preloaded at startup.
type HotelChain struct {
	ChainID int64  `json:"chainid,omitempty"`
	Name    string `json:"name"`
}

type Hotel struct {
	HotelID  int64  `json:"hotelid"`
	ChainID  int64  `json:"chainid"`
	Name     string `json:"hname"`
	Address  string `json:"haddress"`
	Category int    `json:"category"`
}

// Room is an availability snapshot returned by the search endpoint. The
// backend exposes the view column as either "view" or "area" depending on
// the schema revision, so both keys are decoded.
type Room struct {
	RoomID       int64    `json:"roomid"`
	HotelID      int64    `json:"hotelid"`
	Price        float64  `json:"price"`
	View         string   `json:"view,omitempty"`
	Area         string   `json:"area,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	Capacity     int      `json:"capacity"`
	HotelName    string   `json:"hotel_name"`
	ChainName    string   `json:"chain_name"`
	HotelAddress string   `json:"hotel_address,omitempty"`
}

// ViewLabel returns the populated view column, whichever key the backend
// used.
func (r Room) ViewLabel() string {
	if r.View != "" {
		return r.View
	}
	return r.Area
}

type Customer struct {
	CustomerID int64  `json:"customerid"`
	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	Address    string `json:"address"`
}

type Employee struct {
	EmployeeID int64  `json:"employeeid"`
	HotelID    int64  `json:"hotelid"`
	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	Role       string `json:"role,omitempty"`
}

type Booking struct {
	BookingID  int64    `json:"bookingid"`
	RoomID     int64    `json:"roomid"`
	HotelID    int64    `json:"hotelid,omitempty"`
	CustomerID int64    `json:"customerid"`
	StartDate  DateOnly `json:"start_date"`
	EndDate    DateOnly `json:"end_date"`
	Status     string   `json:"status,omitempty"`
}

// Renting is a staff-created stay that additionally records who checked the
// customer in.
type Renting struct {
	RentingID  int64    `json:"rentingid"`
	RoomID     int64    `json:"roomid"`
	HotelID    int64    `json:"hotelid,omitempty"`
	CustomerID int64    `json:"customerid"`
	EmployeeID int64    `json:"employeeid"`
	StartDate  DateOnly `json:"start_date"`
	EndDate    DateOnly `json:"end_date"`
	Status     string   `json:"status,omitempty"`
}

// RoomCapacitySummary aggregates rooms per hotel by capacity.
type RoomCapacitySummary struct {
	HotelID   int64  `json:"hotelid"`
	HotelName string `json:"hotel_name"`
	Capacity  int    `json:"capacity"`
	RoomCount int    `json:"room_count"`
}

// RoomAreaSummary aggregates available rooms per area/view.
type RoomAreaSummary struct {
	Area      string `json:"area"`
	RoomCount int    `json:"room_count"`
}
