package marketplace

// ---------------------------------------------------------------------------
// FBA Inventory API Types
// ---------------------------------------------------------------------------

// AmazonInventorySummariesResponse is the response of GET /fba/inventory/v1/summaries
type AmazonInventorySummariesResponse struct {
	Payload *AmazonInventoryPayload `json:"payload,omitempty"`
	Errors  []AmazonError           `json:"errors,omitempty"`
}

// AmazonInventoryPayload wraps the summaries list
type AmazonInventoryPayload struct {
	InventorySummaries []AmazonInventorySummary `json:"inventorySummaries"`
}

// AmazonInventorySummary is one seller SKU's inventory
type AmazonInventorySummary struct {
	ASIN             string                  `json:"asin,omitempty"`
	FnSKU            string                  `json:"fnSku,omitempty"`
	SellerSKU        string                  `json:"sellerSku"`
	ProductName      string                  `json:"productName,omitempty"`
	TotalQuantity    int                     `json:"totalQuantity"`
	InventoryDetails *AmazonInventoryDetails `json:"inventoryDetails,omitempty"`
}

// AmazonInventoryDetails carries the quantity breakdown
type AmazonInventoryDetails struct {
	FulfillableQuantity int `json:"fulfillableQuantity"`
}

// AmazonError is the Selling Partner API error object
type AmazonError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ---------------------------------------------------------------------------
// Listings Items API Types
// ---------------------------------------------------------------------------

// AmazonListingPutRequest is the body of PUT /listings/2021-08-01/items/{sellerId}/{sku}
type AmazonListingPutRequest struct {
	SKU          string                  `json:"sku"`
	ProductType  string                  `json:"productType"`
	Requirements string                  `json:"requirements"`
	Attributes   AmazonListingAttributes `json:"attributes"`
}

// AmazonListingAttributes holds the attributes being written
type AmazonListingAttributes struct {
	FulfillmentAvailability []AmazonFulfillmentAvailability `json:"fulfillment_availability"`
}

// AmazonFulfillmentAvailability sets the merchant-fulfilled quantity
type AmazonFulfillmentAvailability struct {
	FulfillmentChannelCode string `json:"fulfillment_channel_code"`
	Quantity               int    `json:"quantity"`
	MarketplaceID          string `json:"marketplace_id"`
}

// AmazonListingSubmissionResponse is the Listings API submission result
type AmazonListingSubmissionResponse struct {
	SKU          string               `json:"sku"`
	Status       string               `json:"status"` // ACCEPTED or INVALID
	SubmissionID string               `json:"submissionId"`
	Issues       []AmazonListingIssue `json:"issues,omitempty"`
}

// AmazonListingIssue describes why a submission was not accepted
type AmazonListingIssue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// IsAccepted returns true if Amazon accepted the submission
func (r *AmazonListingSubmissionResponse) IsAccepted() bool {
	return r.Status == "ACCEPTED"
}
