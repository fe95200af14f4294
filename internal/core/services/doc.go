// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion, embedding, search, question generation, review scheduling
// and chat live here. Provider SDKs, storage engines and file formats stay
// behind the driven ports.
package services
