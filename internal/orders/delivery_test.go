package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-orders.git/internal/cart"
	"github.com/ariefcatur/go-shop-orders.git/internal/catalog"
)

func (m *memEnv) storedOTP(orderID string) *DeliveryOTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[orderID]
	if o == nil || o.OTP == nil {
		return nil
	}
	cp := *o.OTP
	return &cp
}

func TestGenerateDeliveryOTP(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()

	env.addProduct("pX", "sellerX", 1000, 5, catalog.ReviewApproved)
	o := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})

	expires, err := svc.GenerateDeliveryOTP(ctx, o.ID, Actor{ID: "admin1", Role: RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, env.service().now().Add(OTPValidity), expires)

	otp := env.storedOTP(o.ID)
	require.NotNil(t, otp)
	assert.Len(t, otp.Code, otpDigits)
	for _, r := range otp.Code {
		assert.True(t, r >= '0' && r <= '9', "code must be numeric, got %q", otp.Code)
	}

	// a relevant seller may regenerate, replacing the outstanding code
	_, err = svc.GenerateDeliveryOTP(ctx, o.ID, Actor{ID: "sellerX", Role: RoleSeller})
	require.NoError(t, err)
}

func TestGenerateDeliveryOTPGuards(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()

	env.addProduct("pX", "sellerX", 1000, 5, catalog.ReviewApproved)
	o := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})

	_, err := svc.GenerateDeliveryOTP(ctx, o.ID, Actor{ID: "sellerZ", Role: RoleSeller})
	assert.ErrorIs(t, err, ErrPermissionDenied, "unrelated seller")

	_, err = svc.GenerateDeliveryOTP(ctx, o.ID, Actor{ID: "u1", Role: RoleCustomer})
	assert.ErrorIs(t, err, ErrPermissionDenied, "customers never drive delivery")

	_, err = svc.GenerateDeliveryOTP(ctx, "missing", Actor{ID: "admin1", Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CancelByAdmin(ctx, "admin1", o.ID, "Other (Admin)")
	require.NoError(t, err)
	_, err = svc.GenerateDeliveryOTP(ctx, o.ID, Actor{ID: "admin1", Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidState, "terminal orders take no new OTP")
}

func TestConfirmDeliveryFlow(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()
	admin := Actor{ID: "admin1", Role: RoleAdmin}

	env.addProduct("pX", "sellerX", 1000, 5, catalog.ReviewApproved)
	o := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})

	_, err := svc.GenerateDeliveryOTP(ctx, o.ID, admin)
	require.NoError(t, err)
	code := env.storedOTP(o.ID).Code

	_, err = svc.ConfirmDelivery(ctx, o.ID, admin, "000000")
	if code == "000000" {
		require.NoError(t, err)
		return
	}
	assert.ErrorIs(t, err, ErrInvalidOTP, "wrong code")

	upd, err := svc.ConfirmDelivery(ctx, o.ID, admin, code)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, upd.Status)
	require.NotNil(t, upd.ReceivedAt)
	assert.Nil(t, upd.OTP, "terminal transition clears the code")
	assert.Nil(t, upd.CancellationAllowedUntil)

	_, err = svc.ConfirmDelivery(ctx, o.ID, admin, code)
	assert.ErrorIs(t, err, ErrInvalidState, "a code is single use")
}

func TestConfirmDeliveryExpiredCode(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()
	admin := Actor{ID: "admin1", Role: RoleAdmin}

	env.addProduct("pX", "sellerX", 1000, 5, catalog.ReviewApproved)
	o := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})
	_, err := svc.GenerateDeliveryOTP(ctx, o.ID, admin)
	require.NoError(t, err)
	code := env.storedOTP(o.ID).Code

	env.advance(OTPValidity + time.Second)

	_, err = svc.ConfirmDelivery(ctx, o.ID, admin, code)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	got, err := env.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status, "order stays Pending until a valid code lands")
}

func TestConfirmDeliveryDoesNotLeakOrders(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()

	// unknown order and wrong code are indistinguishable to the caller
	_, err := svc.ConfirmDelivery(ctx, "no-such-order", Actor{ID: "admin1", Role: RoleAdmin}, "123456")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	_, err = svc.ConfirmDelivery(ctx, "no-such-order", Actor{ID: "sellerX", Role: RoleSeller}, "123456")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	_, err = svc.ConfirmDelivery(ctx, "whatever", Actor{ID: "admin1", Role: RoleAdmin}, "12")
	assert.ErrorIs(t, err, ErrInvalidOTP, "malformed codes are rejected before any lookup")
}

func TestConfirmDeliverySellerScope(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()

	env.addProduct("pX", "sellerX", 1000, 5, catalog.ReviewApproved)
	o := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})
	_, err := svc.GenerateDeliveryOTP(ctx, o.ID, Actor{ID: "sellerX", Role: RoleSeller})
	require.NoError(t, err)
	code := env.storedOTP(o.ID).Code

	_, err = svc.ConfirmDelivery(ctx, o.ID, Actor{ID: "sellerZ", Role: RoleSeller}, code)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	upd, err := svc.ConfirmDelivery(ctx, o.ID, Actor{ID: "sellerX", Role: RoleSeller}, code)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, upd.Status)
}

func TestConfirmDeliveryConcurrentSingleWinner(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()
	admin := Actor{ID: "admin1", Role: RoleAdmin}

	env.addProduct("pX", "sellerX", 1000, 5, catalog.ReviewApproved)
	o := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})
	_, err := svc.GenerateDeliveryOTP(ctx, o.ID, admin)
	require.NoError(t, err)
	code := env.storedOTP(o.ID).Code

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConfirmDelivery(ctx, o.ID, admin, code)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var oks, invalid int
	for err := range errs {
		switch {
		case err == nil:
			oks++
		case errors.Is(err, ErrInvalidState):
			invalid++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, oks, "exactly one confirmation consumes the code")
	assert.Equal(t, 1, invalid)
}

func TestCancelClearsOutstandingOTP(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()

	env.addProduct("pX", "sellerX", 1000, 5, catalog.ReviewApproved)
	o := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})
	_, err := svc.GenerateDeliveryOTP(ctx, o.ID, Actor{ID: "admin1", Role: RoleAdmin})
	require.NoError(t, err)
	code := env.storedOTP(o.ID).Code

	_, err = svc.CancelByCustomer(ctx, "u1", o.ID)
	require.NoError(t, err)
	assert.Nil(t, env.storedOTP(o.ID))

	_, err = svc.ConfirmDelivery(ctx, o.ID, Actor{ID: "admin1", Role: RoleAdmin}, code)
	assert.ErrorIs(t, err, ErrInvalidState, "a cancelled order can never become delivered")
}

func TestListMyOrdersViewFlags(t *testing.T) {
	env := newMemEnv()
	svc := env.service()
	ctx := context.Background()

	env.addProduct("pX", "sellerX", 1000, 10, catalog.ReviewApproved)

	pending := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})
	_, err := svc.GenerateDeliveryOTP(ctx, pending.ID, Actor{ID: "admin1", Role: RoleAdmin})
	require.NoError(t, err)

	cancelled := placeTestOrder(t, env, svc, "u1", cart.Line{ProductID: "pX", Qty: 1})
	_, err = svc.CancelByCustomer(ctx, "u1", cancelled.ID)
	require.NoError(t, err)

	views, err := svc.ListMyOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[string]OrderView{}
	for _, v := range views {
		byID[v.ID] = v
	}

	pv := byID[pending.ID]
	assert.True(t, pv.Cancellable)
	assert.True(t, pv.ShowDeliveryOTP)
	assert.Len(t, pv.DeliveryOTP, otpDigits, "owner sees the outstanding code")

	cv := byID[cancelled.ID]
	assert.False(t, cv.Cancellable)
	assert.False(t, cv.ShowDeliveryOTP)
	assert.Empty(t, cv.DeliveryOTP)

	// other users see nothing
	other, err := svc.ListMyOrders(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
