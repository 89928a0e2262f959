package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddressComplete(t *testing.T) {
	full := Address{Name: "Asha", Phone: "9999999999", Pincode: "560001", CityVillage: "Bengaluru"}
	assert.True(t, full.Complete())
	assert.True(t, full.Complete(), "landmark is optional")

	tests := []struct {
		name string
		mut  func(a *Address)
	}{
		{"no name", func(a *Address) { a.Name = "" }},
		{"no phone", func(a *Address) { a.Phone = "" }},
		{"no pincode", func(a *Address) { a.Pincode = "" }},
		{"no city", func(a *Address) { a.CityVillage = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := full
			tt.mut(&a)
			assert.False(t, a.Complete())
		})
	}
}

func TestOrderCancellable(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(30 * time.Minute)

	o := &Order{Status: StatusPending, CancellationAllowedUntil: &later}
	assert.True(t, o.Cancellable(now))
	assert.False(t, o.Cancellable(later), "boundary instant is already closed")
	assert.False(t, o.Cancellable(later.Add(time.Second)))

	o.Status = StatusCancelled
	assert.False(t, o.Cancellable(now))

	assert.False(t, (&Order{Status: StatusPending}).Cancellable(now), "no window recorded")
}

func TestShowDeliveryOTP(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	otp := &DeliveryOTP{Code: "123456", ExpiresAt: now.Add(5 * time.Minute)}

	o := &Order{Status: StatusPending, OTP: otp}
	assert.True(t, o.ShowDeliveryOTP(now))
	assert.False(t, o.ShowDeliveryOTP(otp.ExpiresAt), "expired codes are hidden")

	o.Status = StatusDelivered
	assert.False(t, o.ShowDeliveryOTP(now))

	assert.False(t, (&Order{Status: StatusPending}).ShowDeliveryOTP(now))
}

func TestRestoreScoping(t *testing.T) {
	o := &Order{Items: []LineItem{
		{ProductID: "pX", SellerID: "sellerX", Qty: 2},
		{ProductID: "pY", SellerID: "sellerY", Qty: 3},
		{ProductID: "pX2", SellerID: "sellerX", Qty: 1},
	}}

	all := o.restoreAll()
	assert.Len(t, all, 3)

	mine := o.restoreForSeller("sellerX")
	assert.Equal(t, []ItemQty{{ProductID: "pX", Qty: 2}, {ProductID: "pX2", Qty: 1}}, mine)

	assert.Empty(t, o.restoreForSeller("sellerZ"))
	assert.True(t, o.hasSellerItems("sellerY"))
	assert.False(t, o.hasSellerItems("sellerZ"))
}
