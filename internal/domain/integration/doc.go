// Package integration contains the Integration bounded context: the outbound
// marketplaces whose inventory is reconciled against the warehouse.
//
// Key concepts:
//   - MarketplaceClient: Port interface for reading and writing marketplace stock
//   - QuantityResult / UpdateResult: explicit outcomes of remote reads and writes
//   - CachedToken: the short-lived bearer token each client keeps in memory
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
