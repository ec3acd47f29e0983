// Package concessionsv1 описывает контракт concessions.v1.ConcessionsService.
// Сообщения передаются в JSON через gRPC codec "json".
package concessionsv1

// MenuItem — позиция каталога. Цены передаются строкой с двумя знаками после точки.
type MenuItem struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

func (m *MenuItem) GetId() int64 {
	if m == nil {
		return 0
	}
	return m.Id
}

func (m *MenuItem) GetPrice() string {
	if m == nil {
		return ""
	}
	return m.Price
}

// CartEntry — строка корзины; Index — позиция для RemoveItem.
type CartEntry struct {
	Index      int32  `json:"index"`
	MenuItemId int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
}

// Cart — представление корзины. Total вычисляется при каждом ответе.
type Cart struct {
	Id         string       `json:"id"`
	Entries    []*CartEntry `json:"entries"`
	Total      string       `json:"total"`
	SeatNumber string       `json:"seat_number"`
	Version    int64        `json:"version"`
}

func (c *Cart) GetId() string {
	if c == nil {
		return ""
	}
	return c.Id
}

func (c *Cart) GetEntries() []*CartEntry {
	if c == nil {
		return nil
	}
	return c.Entries
}

func (c *Cart) GetTotal() string {
	if c == nil {
		return ""
	}
	return c.Total
}

func (c *Cart) GetSeatNumber() string {
	if c == nil {
		return ""
	}
	return c.SeatNumber
}

type ReceiptLine struct {
	MenuItemId int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
}

// Receipt — результат checkout.
type Receipt struct {
	Id         string         `json:"id"`
	CartId     string         `json:"cart_id"`
	Total      string         `json:"total"`
	SeatNumber string         `json:"seat_number"`
	Lines      []*ReceiptLine `json:"lines"`
	IssuedAt   string         `json:"issued_at"`
}

func (r *Receipt) GetId() string {
	if r == nil {
		return ""
	}
	return r.Id
}

func (r *Receipt) GetTotal() string {
	if r == nil {
		return ""
	}
	return r.Total
}

func (r *Receipt) GetSeatNumber() string {
	if r == nil {
		return ""
	}
	return r.SeatNumber
}

type ListMenuRequest struct{}

type ListMenuResponse struct {
	Items []*MenuItem `json:"items"`
}

func (r *ListMenuResponse) GetItems() []*MenuItem {
	if r == nil {
		return nil
	}
	return r.Items
}

type OpenCartRequest struct{}

type OpenCartResponse struct {
	Cart *Cart `json:"cart"`
}

func (r *OpenCartResponse) GetCart() *Cart {
	if r == nil {
		return nil
	}
	return r.Cart
}

type GetCartRequest struct {
	CartId string `json:"cart_id"`
}

func (r *GetCartRequest) GetCartId() string {
	if r == nil {
		return ""
	}
	return r.CartId
}

type GetCartResponse struct {
	Cart *Cart `json:"cart"`
}

func (r *GetCartResponse) GetCart() *Cart {
	if r == nil {
		return nil
	}
	return r.Cart
}

type AddItemRequest struct {
	CartId     string `json:"cart_id"`
	MenuItemId int64  `json:"menu_item_id"`
}

func (r *AddItemRequest) GetCartId() string {
	if r == nil {
		return ""
	}
	return r.CartId
}

type AddItemResponse struct {
	Cart *Cart `json:"cart"`
}

func (r *AddItemResponse) GetCart() *Cart {
	if r == nil {
		return nil
	}
	return r.Cart
}

type RemoveItemRequest struct {
	CartId string `json:"cart_id"`
	Index  int32  `json:"index"`
}

func (r *RemoveItemRequest) GetCartId() string {
	if r == nil {
		return ""
	}
	return r.CartId
}

type RemoveItemResponse struct {
	Cart *Cart `json:"cart"`
}

func (r *RemoveItemResponse) GetCart() *Cart {
	if r == nil {
		return nil
	}
	return r.Cart
}

type SetSeatNumberRequest struct {
	CartId     string `json:"cart_id"`
	SeatNumber string `json:"seat_number"`
}

func (r *SetSeatNumberRequest) GetCartId() string {
	if r == nil {
		return ""
	}
	return r.CartId
}

type SetSeatNumberResponse struct {
	Cart *Cart `json:"cart"`
}

func (r *SetSeatNumberResponse) GetCart() *Cart {
	if r == nil {
		return nil
	}
	return r.Cart
}

type CheckoutRequest struct {
	CartId string `json:"cart_id"`
}

func (r *CheckoutRequest) GetCartId() string {
	if r == nil {
		return ""
	}
	return r.CartId
}

// CheckoutResponse содержит чек и уже очищенную корзину.
type CheckoutResponse struct {
	Receipt *Receipt `json:"receipt"`
	Cart    *Cart    `json:"cart"`
}

func (r *CheckoutResponse) GetReceipt() *Receipt {
	if r == nil {
		return nil
	}
	return r.Receipt
}

func (r *CheckoutResponse) GetCart() *Cart {
	if r == nil {
		return nil
	}
	return r.Cart
}

type CloseCartRequest struct {
	CartId string `json:"cart_id"`
}

func (r *CloseCartRequest) GetCartId() string {
	if r == nil {
		return ""
	}
	return r.CartId
}

type CloseCartResponse struct{}
