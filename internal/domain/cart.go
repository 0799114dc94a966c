package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidProduct = errors.New("invalid product")

// Product is what the storefront hands to the cart: a cart item without a quantity.
type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	return nil
}

type CartItem struct {
	ID       string
	Title    string
	ImageURL string
	Price    decimal.Decimal
	Quantity int
}

func (i CartItem) Product() Product {
	return Product{ID: i.ID, Title: i.Title, ImageURL: i.ImageURL, Price: i.Price}
}

// Equal compares every field, prices by value.
func (i CartItem) Equal(o CartItem) bool {
	return i.ID == o.ID &&
		i.Title == o.Title &&
		i.ImageURL == o.ImageURL &&
		i.Price.Equal(o.Price) &&
		i.Quantity == o.Quantity
}

type DecrementPolicy int

const (
	// DecrementFloor stops at zero and keeps the item.
	DecrementFloor DecrementPolicy = iota
	// DecrementRemove drops the item once it would reach zero.
	DecrementRemove
	// DecrementUnbounded subtracts one with no floor, quantities may go negative.
	DecrementUnbounded
)

func (p DecrementPolicy) String() string {
	switch p {
	case DecrementFloor:
		return "floor"
	case DecrementRemove:
		return "remove"
	case DecrementUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("DecrementPolicy(%d)", int(p))
	}
}

func ParseDecrementPolicy(s string) (DecrementPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "floor":
		return DecrementFloor, nil
	case "remove":
		return DecrementRemove, nil
	case "unbounded":
		return DecrementUnbounded, nil
	default:
		return DecrementFloor, fmt.Errorf("unknown decrement policy %q", s)
	}
}

func Clone(items []CartItem) []CartItem {
	out := make([]CartItem, len(items))
	copy(out, items)
	return out
}

func IndexOf(items []CartItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddProduct bumps the quantity of an existing line and overwrites its other
// fields with p, or appends p with quantity 1.
func AddProduct(items []CartItem, p Product) []CartItem {
	out := Clone(items)
	if i := IndexOf(out, p.ID); i >= 0 {
		out[i] = CartItem{
			ID:       p.ID,
			Title:    p.Title,
			ImageURL: p.ImageURL,
			Price:    p.Price,
			Quantity: out[i].Quantity + 1,
		}
		return out
	}
	return append(out, CartItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Quantity: 1,
	})
}

func Increment(items []CartItem, id string) []CartItem {
	out := Clone(items)
	if i := IndexOf(out, id); i >= 0 {
		out[i].Quantity++
	}
	return out
}

func Decrement(items []CartItem, id string, policy DecrementPolicy) []CartItem {
	out := Clone(items)
	i := IndexOf(out, id)
	if i < 0 {
		return out
	}

	switch policy {
	case DecrementUnbounded:
		out[i].Quantity--
	case DecrementRemove:
		if out[i].Quantity <= 1 {
			return append(out[:i], out[i+1:]...)
		}
		out[i].Quantity--
	default:
		if out[i].Quantity > 0 {
			out[i].Quantity--
		}
	}
	return out
}
