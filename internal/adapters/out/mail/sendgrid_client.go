// internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	usecase "github.com/Hephaestack/pnoh-eshop-sub000/internal/application/usecase"
	orderdom "github.com/Hephaestack/pnoh-eshop-sub000/internal/domain/order"
)

// SendGridClient sends the order confirmation email. Sending is best
// effort; the order flow never fails on it.
type SendGridClient struct {
	apiKey string
	from   string
}

func NewSendGridClient(apiKey, from string) *SendGridClient {
	return &SendGridClient{apiKey: strings.TrimSpace(apiKey), from: strings.TrimSpace(from)}
}

var _ usecase.ConfirmationSender = (*SendGridClient)(nil)

func (c *SendGridClient) SendOrderConfirmation(ctx context.Context, to string, o *orderdom.Order) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if c.from == "" {
		return fmt.Errorf("from address is empty")
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("to address is empty")
	}
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	subject := fmt.Sprintf("Your pnoh order %s", o.ID)
	body := confirmationBody(o)

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail("pnoh", c.from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	client := sendgrid.NewSendClient(c.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Printf("[sendgrid] error status=%d body=%s", response.StatusCode, response.Body)
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	log.Printf("[sendgrid] confirmation sent: status=%d to=%s order=%s", response.StatusCode, to, o.ID)
	return nil
}

func confirmationBody(o *orderdom.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order!\n\nOrder %s\n\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %dx %s - %.2f EUR\n", it.Quantity, it.Name, it.UnitPrice)
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f EUR\n", o.Subtotal)
	fmt.Fprintf(&b, "Shipping: %.2f EUR (%s)\n", o.Shipping, o.ShippingMethod)
	fmt.Fprintf(&b, "VAT:      %.2f EUR\n", o.Tax)
	fmt.Fprintf(&b, "Total:    %.2f EUR\n", o.Total)
	return b.String()
}
