// Package cart holds the line-item cart and the per-device service that owns
// one cart per device.
package cart

import (
	"slices"

	"github.com/vin-devs/learnsite/models"
)

// LineItem is one distinct product in the cart.
type LineItem struct {
	ProductID string      `json:"productId"`
	Kind      models.Kind `json:"kind"`
	Title     string      `json:"title"`
	Price     float64     `json:"price"`
	Quantity  int         `json:"quantity"`
	Thumbnail string      `json:"thumbnail"`
}

// NewItem is the payload for AddItem.
type NewItem struct {
	ProductID string      `json:"productId" binding:"required"`
	Kind      models.Kind `json:"kind"`
	Title     string      `json:"title"`
	Price     float64     `json:"price"`
	Thumbnail string      `json:"thumbnail"`
}

// Cart is an ordered list of line items with at most one row per product.
// It is not safe for concurrent use; Service serialises access.
type Cart struct {
	items   []LineItem
	open    bool
	persist func([]LineItem)
}

// New rehydrates a cart from items. persist, if non-nil, receives a copy of
// the item list after every mutation.
func New(items []LineItem, persist func([]LineItem)) *Cart {
	c := &Cart{persist: persist}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			continue
		}
		if i := c.index(it.ProductID); i >= 0 {
			c.items[i].Quantity += it.Quantity
			continue
		}
		c.items = append(c.items, it)
	}
	return c
}

func (c *Cart) index(productID string) int {
	return slices.IndexFunc(c.items, func(it LineItem) bool { return it.ProductID == productID })
}

func (c *Cart) save() {
	if c.persist != nil {
		c.persist(c.Items())
	}
}

// AddItem increments the quantity of an existing row or appends a new row
// with quantity 1.
func (c *Cart) AddItem(item NewItem) {
	if i := c.index(item.ProductID); i >= 0 {
		c.items[i].Quantity++
	} else {
		c.items = append(c.items, LineItem{
			ProductID: item.ProductID,
			Kind:      item.Kind,
			Title:     item.Title,
			Price:     item.Price,
			Thumbnail: item.Thumbnail,
			Quantity:  1,
		})
	}
	c.save()
}

// RemoveItem drops the row for productID. Unknown ids are ignored.
func (c *Cart) RemoveItem(productID string) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.items = slices.Delete(c.items, i, i+1)
	c.save()
}

// UpdateQuantity replaces the quantity of a row; quantity <= 0 removes it.
// Unknown ids are ignored.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.items[i].Quantity = quantity
	c.save()
}

func (c *Cart) Clear() {
	c.items = nil
	c.save()
}

// TotalItems is the sum of quantities.
func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the undiscounted, pre-tax subtotal.
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// SetOpen toggles the cart drawer. The flag is never persisted.
func (c *Cart) SetOpen(open bool) { c.open = open }

func (c *Cart) IsOpen() bool { return c.open }

// Snapshot is the read model returned to clients.
type Snapshot struct {
	Items      []LineItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice"`
	IsOpen     bool       `json:"isOpen"`
}

func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		Items:      c.Items(),
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
		IsOpen:     c.open,
	}
}
