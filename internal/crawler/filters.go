package crawler

import (
	"fmt"
	"net/url"
	"strconv"
)

// Filters narrow a static listing page. Zero values are left out.
type Filters struct {
	Brand           string
	NewArrivalsDays int
	PriceFrom       int
	PriceTo         int
	Order           string
}

var validOrders = map[string]bool{
	"sale":       true,
	"popularity": true,
	"price_asc":  true,
	"price_desc": true,
	"newest":     true,
}

func (f Filters) Validate() error {
	if f.Order != "" && !validOrders[f.Order] {
		return fmt.Errorf("invalid order %q", f.Order)
	}
	if f.NewArrivalsDays < 0 || f.PriceFrom < 0 || f.PriceTo < 0 {
		return fmt.Errorf("filters must not be negative")
	}
	if f.PriceTo > 0 && f.PriceFrom > f.PriceTo {
		return fmt.Errorf("price_from %d is above price_to %d", f.PriceFrom, f.PriceTo)
	}
	return nil
}

func (f Filters) Query() url.Values {
	q := url.Values{}
	if f.NewArrivalsDays > 0 {
		q.Set("activation_date", "0-"+strconv.Itoa(f.NewArrivalsDays))
	}
	if f.PriceFrom > 0 {
		q.Set("price_from", strconv.Itoa(f.PriceFrom))
	}
	if f.PriceTo > 0 {
		q.Set("price_to", strconv.Itoa(f.PriceTo))
	}
	if f.Order != "" {
		q.Set("order", f.Order)
	}
	if f.Brand != "" {
		q.Set("brand", f.Brand)
	}
	return q
}
