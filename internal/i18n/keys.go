package i18n

// Key is a dotted path into a locale catalog.
type Key string

// Keys the server resolves itself. Clients may resolve any other path.
const (
	KeyProductAddedToCart     Key = "product.addedToCart"
	KeyProductQuantityUpdated Key = "product.quantityUpdated"
	KeyCheckoutPhoneRequired  Key = "checkout.errors.phoneRequired"
	KeyCheckoutOrderFailed    Key = "checkout.errors.orderFailed"
	KeyCheckoutEmptyCart      Key = "checkout.errors.emptyCart"
	KeyCheckoutSuccessMessage Key = "checkout.success.message"
	KeyAdminInvalidPassword   Key = "admin.login.invalidPassword"
	KeyCartItems              Key = "cart.items"
)

func (k Key) String() string {
	return string(k)
}
