package orders

import (
	"fmt"
	"strings"
)

func rupees(cents int) string {
	return fmt.Sprintf("₹%.2f", float64(cents)/100)
}

func orderPlacedEmail(o *Order) (subject, text, html string) {
	subject = "Your Order Has Been Placed!"

	var items strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&items, "<li>%s (Qty: %d) - %s</li>", it.Name, it.Qty, rupees(it.PriceAtOrderCents))
	}
	html = fmt.Sprintf(
		"<h2>Thank you for your order!</h2><p>Your Order ID: %s</p><p>Total Amount: %s</p>"+
			"<p>Shipping To: %s, %s</p><h3>Items:</h3><ul>%s</ul>"+
			"<p>You can track your order status in the 'My Orders' section.</p>",
		o.ID, rupees(o.TotalCents), o.ShippingAddress.Name, o.ShippingAddress.CityVillage, items.String())
	text = fmt.Sprintf("Your order %s has been placed. Total: %s", o.ID, rupees(o.TotalCents))
	return subject, text, html
}

func orderDeliveredEmail(o *Order) (subject, text, html string) {
	subject = "Your Order Has Been Delivered!"
	when := ""
	if o.ReceivedAt != nil {
		when = fmt.Sprintf("<p>Received Date: %s</p>", o.ReceivedAt.Format("02 Jan 2006 15:04"))
	}
	html = fmt.Sprintf(
		"<p>Great news! Your order (%s) has been successfully delivered.</p>%s<p>Thank you for shopping with us!</p>",
		o.ID, when)
	text = fmt.Sprintf("Your order %s has been delivered.", o.ID)
	return subject, text, html
}

func orderCancelledEmail(o *Order) (subject, text, html string) {
	subject = fmt.Sprintf("Your Order (%s) Has Been Cancelled", o.ID)
	html = fmt.Sprintf(
		"<p>Your order (%s) has been cancelled.</p><p><strong>Reason:</strong> %s</p>"+
			"<p>Please contact support if you have questions.</p>",
		o.ID, o.CancellationReason)
	text = fmt.Sprintf("Order %s cancelled. Reason: %s", o.ID, o.CancellationReason)
	return subject, text, html
}
