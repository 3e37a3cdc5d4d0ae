// Package export implements the order flattening, CSV serialization, and
// per-job orchestration of the export pipeline.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xtremeops/shipstation-export/pkg/shipstation"
)

// FlattenContext carries the per-job lookup data Flatten needs. All of it is
// read-only; Flatten performs no I/O.
type FlattenContext struct {
	JobID    string
	TagID    string
	Stores   map[string]string
	Services ServiceLookup
}

// Flatten maps one order to exactly one Row per item. An order with zero
// items yields zero rows. Every derivation recovers malformed input to a safe
// default ("" or 0) rather than failing the row.
func Flatten(o shipstation.Order, fc FlattenContext) []Row {
	service := serviceLabel(o, fc.Services)
	status := titleCaseSnake(o.OrderStatus)
	orderDate := formatTimestamp(o.OrderDate)
	shipByDate := formatTimestamp(o.ShipByDate)
	channel := o.AdvancedOptions.Source
	storeName := resolveStoreName(o, fc.Stores)
	weight := formatWeight(o.Weight)

	rows := make([]Row, 0, len(o.Items))
	for _, item := range o.Items {
		sku := item.SKU
		qty := strconv.Itoa(coerceQuantity(item.Quantity))

		mfpn := item.WarehouseLocation
		if mfpn == "" {
			mfpn = item.FulfillmentSKU
		}

		rows = append(rows, Row{
			"JobID":           fc.JobID,
			"Order - Number":  o.OrderNumber,
			"Order - Channel": channel,

			"BoxContent":                  sku,
			"MFPN":                        mfpn,
			"Item - SKU":                  sku,
			"FulfillableQty":              qty,
			"Carrier - Service Requested": service,

			"Fulfillment SKU":    item.FulfillmentSKU,
			"Warehouse Location": item.WarehouseLocation,
			"UPC":                item.UPC,
			"Item Name":          item.Name,
			"Product ID":         formatID(item.ProductID),

			"tagId":       fc.TagID,
			"orderId":     formatID(o.OrderID),
			"orderItemId": formatID(item.OrderItemID),

			"Order Status":             status,
			"Carrier Service Selected": service,
			"Order Date":               orderDate,
			"Ship By Date":             shipByDate,
			"Order Number":             o.OrderNumber,
			"Item SKU":                 sku,
			"Item Qty":                 qty,
			"Source":                   channel,
			"Market Store Name":        storeName,
			"Order Weight":             weight,
			"Service Package Type":     o.PackageCode,
		})
	}

	return rows
}

// serviceLabel derives the human-readable carrier/service label.
//
// Priority: a recognized human-entered requested service wins, then the
// static carrier+service code table, then a synthesized "CARRIER Service"
// label, and finally the raw requested text verbatim (possibly empty).
func serviceLabel(o shipstation.Order, lookup ServiceLookup) string {
	requested := strings.TrimSpace(o.RequestedShippingService)

	if requested != "" {
		if label, ok := lookup.Requested[normalizeRequested(requested)]; ok {
			return label
		}
	}

	carrier := strings.TrimSpace(o.CarrierCode)
	service := strings.TrimSpace(o.ServiceCode)

	if label, ok := lookup.Services[serviceKey(carrier, service)]; ok {
		return label
	}

	if carrier != "" && service != "" {
		return strings.ToUpper(carrier) + " " + titleCaseSnake(service)
	}

	return requested
}

// titleCaseSnake converts a snake_case code to Title Case.
func titleCaseSnake(s string) string {
	words := strings.Split(strings.TrimSpace(strings.ToLower(s)), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatTimestamp renders an ISO-8601-like upstream timestamp as
// "M/D/YYYY h:mm:ss AM|PM". The fractional-seconds component arrives with
// anywhere from one to seven digits, so it is right-padded or truncated to
// exactly six before parsing. Unparsable or absent input yields "".
func formatTimestamp(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}

	base := ts
	frac := ""
	if i := strings.IndexByte(ts, '.'); i >= 0 {
		base, frac = ts[:i], ts[i+1:]
	}
	if len(frac) > 6 {
		frac = frac[:6]
	} else {
		frac += strings.Repeat("0", 6-len(frac))
	}

	t, err := time.Parse("2006-01-02T15:04:05.000000", base+"."+frac)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("%d/%d/%d %s", int(t.Month()), t.Day(), t.Year(), t.Format("3:04:05 PM"))
}

// resolveStoreName looks up the display name for the order's store. The
// advanced-options store id wins over the top-level one; unresolved ids
// resolve to "".
func resolveStoreName(o shipstation.Order, stores map[string]string) string {
	id := o.AdvancedOptions.StoreID
	if id == 0 {
		id = o.StoreID
	}
	if id == 0 {
		return ""
	}
	return stores[strconv.FormatInt(id, 10)]
}

// coerceQuantity converts the raw quantity JSON to a non-negative integer.
// Numbers, floats, and numeric strings all parse; anything else is 0.
func coerceQuantity(raw []byte) int {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

// formatWeight renders a shipping weight value, dropping trailing zeros.
func formatWeight(w *shipstation.Weight) string {
	if w == nil {
		return ""
	}
	return strconv.FormatFloat(w.Value, 'f', -1, 64)
}

// formatID renders a numeric upstream id, leaving zero (absent) as "".
func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
