package pos

import (
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 UTC form the POS accepts for order dates.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

const (
	PaymentKindCash = "Cash"
	PaymentKindCard = "Card"

	ItemTypeProduct = "Product"

	CommandStateSuccess    = "Success"
	CommandStateError      = "Error"
	CommandStateInProgress = "InProgress"
)

// DefaultOrderStatuses is the status filter used when listing orders without an explicit one.
var DefaultOrderStatuses = []string{
	"Unconfirmed", "WaitCooking", "ReadyForCooking", "CookingStarted",
	"CookingCompleted", "Waiting", "OnWay", "Delivered", "Closed", "Cancelled",
}

type accessTokenRequest struct {
	APILogin string `json:"apiLogin"`
}

type accessTokenResponse struct {
	Token         string `json:"token"`
	CorrelationID string `json:"correlationId,omitempty"`
}

type CreateOrderRequest struct {
	OrganizationID  string        `json:"organizationId"`
	TerminalGroupID string        `json:"terminalGroupId"`
	Order           DeliveryOrder `json:"order"`
}

type DeliveryOrder struct {
	ID             string         `json:"id"`
	Date           string         `json:"date"`
	Phone          string         `json:"phone"`
	CompleteBefore string         `json:"completeBefore"`
	Customer       Customer       `json:"customer"`
	DeliveryPoint  *DeliveryPoint `json:"deliveryPoint,omitempty"`
	Items          []Item         `json:"items"`
	Payments       []Payment      `json:"payments"`
	Comment        string         `json:"comment"`
	SourceKey      string         `json:"sourceKey"`
	OrderTypeID    string         `json:"orderTypeId,omitempty"`
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type DeliveryPoint struct {
	Address Address `json:"address"`
	Comment string  `json:"comment"`
}

type Address struct {
	Street Street `json:"street"`
	House  string `json:"house"`
}

type Street struct {
	ClassifierID string `json:"classifierId"`
	Name         string `json:"name"`
}

type Item struct {
	Type      string `json:"type"`
	ProductID string `json:"productId"`
	Amount    int    `json:"amount"`
	Comment   string `json:"comment,omitempty"`
}

type Payment struct {
	PaymentTypeKind       string  `json:"paymentTypeKind"`
	PaymentTypeID         string  `json:"paymentTypeId"`
	Sum                   float64 `json:"sum"`
	IsProcessedExternally bool    `json:"isProcessedExternally"`
}

// CreateOrderResponse tolerates the id being returned under any of the keys the POS uses.
type CreateOrderResponse struct {
	CorrelationID string     `json:"correlationId,omitempty"`
	OrderID       string     `json:"orderId,omitempty"`
	ID            string     `json:"id,omitempty"`
	OrderInfo     *OrderInfo `json:"orderInfo,omitempty"`
}

type OrderInfo struct {
	ID             string     `json:"id"`
	CreationStatus string     `json:"creationStatus,omitempty"`
	ErrorInfo      *ErrorInfo `json:"errorInfo,omitempty"`
}

type ErrorInfo struct {
	Code        string `json:"code"`
	Message     string `json:"message,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreationError reports a creation the POS accepted over HTTP but refused to
// process, such as TooSmallDeliveryDate.
func CreationError(resp *CreateOrderResponse) (string, bool) {
	if resp == nil || resp.OrderInfo == nil {
		return "", false
	}
	info := resp.OrderInfo
	if info.CreationStatus != CommandStateError && info.ErrorInfo == nil {
		return "", false
	}
	if info.ErrorInfo == nil {
		return "creation status " + info.CreationStatus, true
	}
	var parts []string
	for _, p := range []string{info.ErrorInfo.Code, info.ErrorInfo.Message, info.ErrorInfo.Description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "creation status " + info.CreationStatus, true
	}
	return strings.Join(parts, ": "), true
}

// ExtractOrderID returns the POS order id, looking at orderId, id and orderInfo.id in that order.
func ExtractOrderID(resp *CreateOrderResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	for _, candidate := range []string{resp.OrderID, resp.ID, orderInfoID(resp.OrderInfo)} {
		if candidate != "" {
			return candidate, true
		}
	}
	return "", false
}

func orderInfoID(info *OrderInfo) string {
	if info == nil {
		return ""
	}
	return info.ID
}

type commandStatusRequest struct {
	OrganizationID string `json:"organizationId"`
	CorrelationID  string `json:"correlationId"`
}

type CommandStatus struct {
	State     string          `json:"state"`
	Exception *CommandFailure `json:"exception,omitempty"`
}

type CommandFailure struct {
	Message string `json:"message"`
}

type ordersByIDRequest struct {
	OrganizationIDs []string `json:"organizationIds"`
	OrderIDs        []string `json:"orderIds"`
}

type ordersByDateRequest struct {
	OrganizationIDs  []string `json:"organizationIds"`
	DeliveryDateFrom string   `json:"deliveryDateFrom"`
	DeliveryDateTo   string   `json:"deliveryDateTo"`
	Statuses         []string `json:"statuses,omitempty"`
}

type ordersResponse struct {
	CorrelationID         string               `json:"correlationId,omitempty"`
	Orders                []OrderSummary       `json:"orders,omitempty"`
	OrdersByOrganizations []organizationOrders `json:"ordersByOrganizations,omitempty"`
}

type organizationOrders struct {
	OrganizationID string         `json:"organizationId"`
	Orders         []OrderSummary `json:"orders"`
}

func (r ordersResponse) all() []OrderSummary {
	if len(r.OrdersByOrganizations) == 0 {
		return r.Orders
	}
	var out []OrderSummary
	for _, org := range r.OrdersByOrganizations {
		out = append(out, org.Orders...)
	}
	return out
}

// OrderSummary is the POS view of a delivery order as returned by the lookup endpoints.
type OrderSummary struct {
	ID             string        `json:"id"`
	CreationStatus string        `json:"creationStatus,omitempty"`
	Order          *OrderDetails `json:"order,omitempty"`
}

func (o OrderSummary) Number() int {
	if o.Order == nil {
		return 0
	}
	return o.Order.Number
}

type OrderDetails struct {
	Number         int            `json:"number"`
	Status         string         `json:"status"`
	Phone          string         `json:"phone"`
	Sum            float64        `json:"sum"`
	CompleteBefore string         `json:"completeBefore,omitempty"`
	WhenCreated    string         `json:"whenCreated,omitempty"`
	Comment        string         `json:"comment,omitempty"`
	Customer       *OrderCustomer `json:"customer,omitempty"`
	DeliveryPoint  *OrderDelivery `json:"deliveryPoint,omitempty"`
	Items          []OrderLine    `json:"items,omitempty"`
}

type OrderCustomer struct {
	Name string `json:"name"`
}

type OrderDelivery struct {
	Address *OrderAddress `json:"address,omitempty"`
}

type OrderAddress struct {
	Line1 string `json:"line1"`
}

type OrderLine struct {
	Product *OrderProduct `json:"product,omitempty"`
	Amount  float64       `json:"amount"`
	Price   float64       `json:"price"`
}

type OrderProduct struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type menuRequest struct {
	ExternalMenuID  string   `json:"externalMenuId"`
	OrganizationIDs []string `json:"organizationIds"`
}

type Menu struct {
	ID             int            `json:"id,omitempty"`
	Name           string         `json:"name,omitempty"`
	ItemCategories []MenuCategory `json:"itemCategories"`
}

type MenuCategory struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

type MenuItem struct {
	ItemID      string     `json:"itemId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ItemSizes   []ItemSize `json:"itemSizes"`
}

type ItemSize struct {
	Prices []SizePrice `json:"prices"`
}

type SizePrice struct {
	Price *float64 `json:"price"`
}
