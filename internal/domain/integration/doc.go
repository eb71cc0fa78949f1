// Package integration contains the Integration bounded context.
// This context moves product data from an external product source into a
// hosted merchant catalog.
//
// Key concepts:
//   - ExternalProduct: Product record read from the external REST source
//   - CatalogProductDraft: Product payload built for the merchant catalog
//   - ProductSource / CatalogPlatform: Port interfaces implemented by adapters
//   - ImportRun: State machine tracking a single import from fetch to publish
//   - InFlightGuard / RunStore: Ports for duplicate suppression and async run tracking
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
