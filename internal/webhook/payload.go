package webhook

import (
	"time"

	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
)

// sessionPayload is the explicit schema for the slice of a
// checkout.session.completed event the ledger cares about. Everything except
// the id is optional and defaults to a zero value; an event without an id is
// rejected outright.
type sessionPayload struct {
	ID              string            `json:"id"`
	PaymentIntent   string            `json:"payment_intent"`
	CustomerDetails *customerDetails  `json:"customer_details"`
	ShippingDetails *shippingDetails  `json:"shipping_details"`
	LineItems       *lineItemList     `json:"line_items"`
	Metadata        map[string]string `json:"metadata"`
}

type customerDetails struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type shippingDetails struct {
	Name    string           `json:"name"`
	Address *shippingAddress `json:"address"`
}

type shippingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type lineItemList struct {
	Data []lineItem `json:"data"`
}

type lineItem struct {
	Description string     `json:"description"`
	Quantity    int64      `json:"quantity"`
	Price       *priceInfo `json:"price"`
}

type priceInfo struct {
	UnitAmount int64 `json:"unit_amount"`
}

// toRecord maps the payload onto a fresh ledger row.
func (p *sessionPayload) toRecord(now time.Time) ledger.OrderRecord {
	rec := ledger.OrderRecord{
		TransactionID:   p.ID,
		PaymentIntentID: p.PaymentIntent,
		PlacedAt:        now,
		Status:          ledger.StatusPlaced,
		TrackingNumber:  "",
		Notified:        false,
	}
	if p.CustomerDetails != nil {
		rec.CustomerEmail = p.CustomerDetails.Email
	}
	if p.ShippingDetails != nil {
		rec.ShippingAddress.FullName = p.ShippingDetails.Name
		if a := p.ShippingDetails.Address; a != nil {
			rec.ShippingAddress.Line1 = a.Line1
			rec.ShippingAddress.City = a.City
			rec.ShippingAddress.State = a.State
			rec.ShippingAddress.PostalCode = a.PostalCode
			rec.ShippingAddress.Country = a.Country
		}
	}
	if p.LineItems != nil {
		for _, li := range p.LineItems.Data {
			item := ledger.LineItem{
				Name:     li.Description,
				Quantity: int(li.Quantity),
			}
			if li.Price != nil {
				item.UnitPriceCents = li.Price.UnitAmount
			}
			rec.Items = append(rec.Items, item)
		}
	}
	return rec
}
