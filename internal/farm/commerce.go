package farm

import (
	"fmt"
	"math"
	"strings"
)

// Order statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
)

// Catalog lists shop items, optionally filtered by category and by a
// case-insensitive match on name or pest targets.
func (r *Records) Catalog(category, query string) []CatalogItem {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.store.Catalog().List(func(it CatalogItem) bool {
		if category != "" && !strings.EqualFold(it.Category, category) {
			return false
		}
		if q == "" {
			return true
		}
		if strings.Contains(strings.ToLower(it.Name), q) {
			return true
		}
		for _, p := range it.PestTargets {
			if strings.Contains(strings.ToLower(p), q) {
				return true
			}
		}
		return false
	})
}

// CatalogItem returns one shop item.
func (r *Records) CatalogItem(id string) (CatalogItem, error) {
	return r.store.Catalog().Get(id)
}

// CartRequest adds a quantity of an item to a user's cart.
type CartRequest struct {
	UserID   string `json:"userId" validate:"required"`
	ItemID   string `json:"medicineId" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// Cart lists a user's cart items.
func (r *Records) Cart(userID string) []CartItem {
	return r.store.CartItems().List(func(c CartItem) bool { return c.UserID == userID })
}

// AddToCart puts an item in the cart, merging with an existing line for the
// same item.
func (r *Records) AddToCart(req CartRequest) (CartItem, error) {
	if err := Validate(req); err != nil {
		return CartItem{}, err
	}
	item, err := r.store.Catalog().Get(req.ItemID)
	if err != nil {
		return CartItem{}, fmt.Errorf("catalog item %s: %w", req.ItemID, err)
	}
	if !item.InStock {
		return CartItem{}, &ValidationError{Fields: []string{"ItemID"}, Cause: fmt.Errorf("%s is out of stock", item.Name)}
	}

	existing := r.store.CartItems().List(func(c CartItem) bool {
		return c.UserID == req.UserID && c.ItemID == req.ItemID
	})
	if len(existing) > 0 {
		return r.store.CartItems().Update(existing[0].ID, func(c *CartItem) { c.Quantity += req.Quantity })
	}
	return r.store.CartItems().Create(CartItem{UserID: req.UserID, ItemID: req.ItemID, Quantity: req.Quantity}), nil
}

// SetCartQuantity changes a cart line's quantity. Zero removes the line.
func (r *Records) SetCartQuantity(id string, quantity int) (CartItem, error) {
	if quantity < 0 {
		return CartItem{}, &ValidationError{Fields: []string{"Quantity"}, Cause: fmt.Errorf("quantity %d is negative", quantity)}
	}
	if quantity == 0 {
		line, err := r.store.CartItems().Get(id)
		if err != nil {
			return CartItem{}, err
		}
		return line, r.store.CartItems().Delete(id)
	}
	return r.store.CartItems().Update(id, func(c *CartItem) { c.Quantity = quantity })
}

// RemoveFromCart deletes a cart line.
func (r *Records) RemoveFromCart(id string) error {
	return r.store.CartItems().Delete(id)
}

// OrderRequest checks out a user's cart.
type OrderRequest struct {
	UserID          string `json:"userId" validate:"required"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required"`
}

// PlaceOrder turns the user's cart into an order priced from the current
// catalog and empties the cart.
func (r *Records) PlaceOrder(req OrderRequest) (Order, error) {
	if err := Validate(req); err != nil {
		return Order{}, err
	}
	lines := r.Cart(req.UserID)
	if len(lines) == 0 {
		return Order{}, &ValidationError{Fields: []string{"Cart"}, Cause: fmt.Errorf("cart for %s is empty", req.UserID)}
	}

	var total float64
	for _, l := range lines {
		item, err := r.store.Catalog().Get(l.ItemID)
		if err != nil {
			return Order{}, fmt.Errorf("catalog item %s: %w", l.ItemID, err)
		}
		total += item.Price * float64(l.Quantity)
	}

	order := r.store.Orders().Create(Order{
		UserID:          req.UserID,
		Items:           lines,
		TotalAmount:     math.Round(total*100) / 100,
		DeliveryAddress: req.DeliveryAddress,
		Status:          OrderConfirmed,
	})
	for _, l := range lines {
		_ = r.store.CartItems().Delete(l.ID)
	}
	return order, nil
}

// Orders lists a user's orders.
func (r *Records) Orders(userID string) []Order {
	return r.store.Orders().List(func(o Order) bool { return o.UserID == userID })
}
