package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultKey is the single key the whole cart is stored under.
const DefaultKey = "@gomarketplace:products"

var ErrCorruptCart = errors.New("corrupt persisted cart")

// record is the persisted shape of one line item.
type record struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ImageURL string      `json:"image_url"`
	Price    json.Number `json:"price"`
	Quantity int         `json:"quantity"`
}

func encodeItems(items []domain.CartItem) ([]byte, error) {
	records := make([]record, len(items))
	for i, it := range items {
		records[i] = record{
			ID:       it.ID,
			Title:    it.Title,
			ImageURL: it.ImageURL,
			Price:    json.Number(it.Price.String()),
			Quantity: it.Quantity,
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

// decodeItems treats an empty value or JSON null as an empty cart.
func decodeItems(data []byte) ([]domain.CartItem, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []domain.CartItem{}, nil
	}

	var records []record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}

	items := make([]domain.CartItem, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrCorruptCart, r.ID)
		}
		seen[r.ID] = struct{}{}

		price := decimal.Zero
		if r.Price != "" {
			p, err := decimal.NewFromString(r.Price.String())
			if err != nil {
				return nil, fmt.Errorf("%w: item %d price: %v", ErrCorruptCart, i, err)
			}
			price = p
		}

		items = append(items, domain.CartItem{
			ID:       r.ID,
			Title:    r.Title,
			ImageURL: r.ImageURL,
			Price:    price,
			Quantity: r.Quantity,
		})
	}
	return items, nil
}
