package ledger

import "time"

// Order statuses. Transitions are driven externally; the ledger only records
// them.
const (
	StatusPlaced     = "PLACED"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
)

// LineItem is one purchased item on an order.
type LineItem struct {
	Name           string `dynamodbav:"name" json:"name"`
	Quantity       int    `dynamodbav:"quantity" json:"quantity"`
	UnitPriceCents int64  `dynamodbav:"unit_price_cents" json:"unitPriceCents"`
}

// ShippingAddress is the destination captured from the completion event.
// Every field is optional; missing fields are stored as empty strings.
type ShippingAddress struct {
	FullName   string `dynamodbav:"full_name" json:"fullName"`
	Line1      string `dynamodbav:"line1" json:"line1"`
	City       string `dynamodbav:"city" json:"city"`
	State      string `dynamodbav:"state" json:"state"`
	PostalCode string `dynamodbav:"postal_code" json:"postalCode"`
	Country    string `dynamodbav:"country" json:"country"`
}

// OrderRecord is one row in the orders table, keyed by the transaction id the
// payment processor assigned. For checkout-session completions the session id
// and the transaction id are the same value; PaymentIntentID is kept as a
// secondary identifier for reconciliation.
type OrderRecord struct {
	TransactionID   string          `dynamodbav:"transaction_id" json:"transactionId"` // PK
	PaymentIntentID string          `dynamodbav:"payment_intent_id,omitempty" json:"paymentIntentId,omitempty"`
	CustomerEmail   string          `dynamodbav:"customer_email" json:"customerEmail"`
	PlacedAt        time.Time       `dynamodbav:"placed_at" json:"placedAt"`
	Status          string          `dynamodbav:"status" json:"status"` // PLACED | PROCESSING | SHIPPED | DELIVERED
	Items           []LineItem      `dynamodbav:"items,omitempty" json:"items"`
	ShippingAddress ShippingAddress `dynamodbav:"shipping_address" json:"shippingAddress"`
	TrackingNumber  string          `dynamodbav:"tracking_number" json:"trackingNumber"`
	Notified        bool            `dynamodbav:"notified" json:"notified"`
	LastUpdatedAt   time.Time       `dynamodbav:"last_updated_at" json:"lastUpdatedAt"`
}
