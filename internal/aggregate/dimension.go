package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"ecom-dashboard/internal/models"
)

type Entity string

const (
	Customer Entity = "customer"
	Seller   Entity = "seller"
)

type Level string

const (
	City  Level = "city"
	State Level = "state"
)

var ErrUnknownDimension = errors.New("unknown geo dimension")

// Dimension is a location column a geo count groups by.
type Dimension struct {
	Entity Entity
	Level  Level
}

var (
	CustomerCity  = Dimension{Customer, City}
	CustomerState = Dimension{Customer, State}
	SellerCity    = Dimension{Seller, City}
	SellerState   = Dimension{Seller, State}
)

// Dimensions lists every supported geo grouping.
var Dimensions = []Dimension{CustomerCity, CustomerState, SellerCity, SellerState}

// ParseDimension accepts the column names customer_city, customer_state,
// seller_city and seller_state.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Dimensions {
		if d.String() == s {
			return d, nil
		}
	}
	return Dimension{}, fmt.Errorf("%w %q", ErrUnknownDimension, s)
}

func (d Dimension) String() string {
	return string(d.Entity) + "_" + string(d.Level)
}

func (d Dimension) extract(rec models.OrderLine) (location, id string) {
	switch d {
	case CustomerCity:
		return rec.CustomerCity, rec.CustomerID
	case CustomerState:
		return rec.CustomerState, rec.CustomerID
	case SellerCity:
		return rec.SellerCity, rec.SellerID
	case SellerState:
		return rec.SellerState, rec.SellerID
	}
	return "", ""
}
