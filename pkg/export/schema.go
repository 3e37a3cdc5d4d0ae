package export

// Row is one flat output record, keyed by column name. Fields not present in
// the active schema are dropped at serialization; schema fields absent from a
// row serialize as empty strings.
type Row map[string]string

// Schema is a fixed, ordered set of output columns. Column order is part of
// the partner contract and must not vary.
type Schema struct {
	Name    string
	Columns []string
}

// AuditSchema is the audit-oriented column set.
var AuditSchema = Schema{
	Name: "audit",
	Columns: []string{
		"JobID",
		"Order - Number",
		"Order - Channel",
		"BoxContent",
		"MFPN",
		"Item - SKU",
		"FulfillableQty",
		"Carrier - Service Requested",

		"Fulfillment SKU",
		"Warehouse Location",
		"UPC",
		"Item Name",
		"Product ID",

		"tagId",
		"orderId",
		"orderItemId",
	},
}

// PartnerSchema is the partner-oriented column set.
var PartnerSchema = Schema{
	Name: "partner",
	Columns: []string{
		"Order Status",
		"Carrier Service Selected",
		"Order Date",
		"Ship By Date",
		"Order Number",
		"Item SKU",
		"MFPN",
		"Item Qty",
		"Item Name",
		"Source",
		"Market Store Name",
		"Order Weight",
		"Service Package Type",
	},
}

// SchemaByName resolves a schema selector to a schema value. Unknown names
// fall back to the audit schema.
func SchemaByName(name string) Schema {
	if name == PartnerSchema.Name {
		return PartnerSchema
	}
	return AuditSchema
}
