// Package inventory contains the Inventory bounded context: tracked products,
// their warehouse and marketplace quantities, and the audit log of
// reconciliation runs.
//
// Key concepts:
//   - Product: aggregate holding the authoritative warehouse quantity and the
//     last observed Amazon and MercadoLibre quantities
//   - SyncLogEntry: immutable record of one reconciliation run
//   - SyncPolicy: sales_delta or overwrite, chosen by configuration
//   - Sales arithmetic: quantity drops on a marketplace are sales, increases are ignored
package inventory
