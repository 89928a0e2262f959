package orders

import "errors"

var (
	ErrValidation            = errors.New("invalid input")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrAddressIncomplete     = errors.New("shipping address incomplete")
	ErrProductUnavailable    = errors.New("product unavailable")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrConcurrentStockChange = errors.New("stock changed during checkout, please retry")
	ErrInvalidOTP            = errors.New("invalid or expired OTP")
	ErrInvalidState          = errors.New("operation not allowed in current order status")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrNotFound              = errors.New("order not found")
)
