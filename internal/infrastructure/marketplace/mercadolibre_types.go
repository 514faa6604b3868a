package marketplace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Items API Types
// ---------------------------------------------------------------------------

// MercadoLibreItem is the subset of GET /items/{id} used for stock
type MercadoLibreItem struct {
	ID                string                  `json:"id"`
	Title             string                  `json:"title,omitempty"`
	AvailableQuantity int                     `json:"available_quantity"`
	Variations        []MercadoLibreVariation `json:"variations,omitempty"`
}

// MercadoLibreVariation is one variant of an item with its own stock
type MercadoLibreVariation struct {
	ID                VariationID `json:"id"`
	AvailableQuantity int         `json:"available_quantity"`
}

// FindVariation returns the variation with the given id
func (i *MercadoLibreItem) FindVariation(id string) (*MercadoLibreVariation, bool) {
	for idx := range i.Variations {
		if i.Variations[idx].ID.String() == id {
			return &i.Variations[idx], true
		}
	}
	return nil, false
}

// MercadoLibreStockUpdate is the body of PUT /items/{id}. Exactly one of the
// fields is set depending on whether a variation is targeted.
type MercadoLibreStockUpdate struct {
	AvailableQuantity *int                    `json:"available_quantity,omitempty"`
	Variations        []MercadoLibreVariation `json:"variations,omitempty"`
}

// MercadoLibreError is the API error payload
type MercadoLibreError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// VariationID is a variation identifier. The API sends numbers; it is kept
// as its decimal string and written back as a number when it is numeric.
type VariationID string

// String returns the id
func (v VariationID) String() string {
	return string(v)
}

// UnmarshalJSON accepts both JSON numbers and strings
func (v *VariationID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = VariationID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("variation id: %w", err)
	}
	*v = VariationID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers
func (v VariationID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(v))
}
