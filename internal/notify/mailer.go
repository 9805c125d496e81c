package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/TrueSightDAO/agroverse-shop/internal/aws"
	"github.com/TrueSightDAO/agroverse-shop/internal/ledger"
)

// Mailer sends one shipment notification.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SESMailer sends through SES v2.
type SESMailer struct {
	client aws.SESAPI
	sender string
}

// NewSESMailer returns a Mailer sending from the given verified address.
func NewSESMailer(client aws.SESAPI, sender string) *SESMailer {
	return &SESMailer{client: client, sender: sender}
}

func (m *SESMailer) Send(ctx context.Context, to, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &m.sender,
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: &subject},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: &body},
				},
			},
		},
	}
	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// composeShipmentEmail builds the notification for one shipped order.
func composeShipmentEmail(rec ledger.OrderRecord) (subject, body string) {
	name := rec.ShippingAddress.FullName
	if name == "" {
		name = "there"
	}
	subject = "Your Agroverse order has shipped"
	body = fmt.Sprintf(
		"Hi %s,\n\n"+
			"Good news: your order %s is on its way.\n\n"+
			"Tracking number: %s\n"+
			"Track your package: %s\n\n"+
			"Thank you for supporting regenerative cacao.\n"+
			"The Agroverse team\n",
		name, rec.TransactionID, rec.TrackingNumber, CarrierLink(rec.TrackingNumber))
	return subject, body
}
