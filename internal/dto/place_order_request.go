package dto

import "github.com/shopspring/decimal"

type PlaceOrderRequest struct {
	CustomerName    string           `json:"customerName"`
	CustomerPhone   string           `json:"customerPhone"`
	CustomerEmail   string           `json:"customerEmail"`
	Address         string           `json:"address"`
	HouseNumber     string           `json:"houseNumber"`
	Notes           string           `json:"notes"`
	Items           []PlaceOrderItem `json:"items"`
	PaymentMethod   string           `json:"paymentMethod"`
	PaymentIntentID string           `json:"paymentIntentId"`
	DeliveryType    string           `json:"deliveryType"`
	DeliveryTime    string           `json:"deliveryTime"`
	OrderType       string           `json:"orderType"`
}

// PlaceOrderItem is one cart line. IikoProductID is optional; unmapped lines
// are looked up in the catalog by ID.
type PlaceOrderItem struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	IikoProductID string          `json:"iikoProductId"`
}
