package shipstation

import "encoding/json"

// Order is a single order record as returned by the orders listing endpoint.
// Only the fields the export pipeline reads are declared.
type Order struct {
	OrderID                  int64           `json:"orderId"`
	OrderNumber              string          `json:"orderNumber"`
	OrderStatus              string          `json:"orderStatus"`
	OrderDate                string          `json:"orderDate"`
	ShipByDate               string          `json:"shipByDate"`
	CarrierCode              string          `json:"carrierCode"`
	ServiceCode              string          `json:"serviceCode"`
	PackageCode              string          `json:"packageCode"`
	RequestedShippingService string          `json:"requestedShippingService"`
	StoreID                  int64           `json:"storeId"`
	TagIDs                   []int64         `json:"tagIds"`
	Weight                   *Weight         `json:"weight"`
	AdvancedOptions          AdvancedOptions `json:"advancedOptions"`
	Items                    []Item          `json:"items"`
}

// Item is one line item of an order.
//
// Quantity stays raw JSON: the upstream has been observed returning numbers,
// numeric strings, floats, and null, and the transformer coerces all of them
// to a non-negative integer rather than failing the row.
type Item struct {
	OrderItemID       int64           `json:"orderItemId"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Quantity          json.RawMessage `json:"quantity"`
	FulfillmentSKU    string          `json:"fulfillmentSku"`
	WarehouseLocation string          `json:"warehouseLocation"`
	UPC               string          `json:"upc"`
	ProductID         int64           `json:"productId"`
}

// Weight is an order's shipping weight.
type Weight struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// AdvancedOptions carries the order-level options the export reads.
type AdvancedOptions struct {
	Source  string `json:"source"`
	StoreID int64  `json:"storeId"`
}

// Store is an entry of the store reference endpoint.
type Store struct {
	StoreID   int64  `json:"storeId"`
	StoreName string `json:"storeName"`
}

// ordersPage is the envelope of one orders listing response.
type ordersPage struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Pages  int     `json:"pages"`
}
