// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Extracts text from a file format
//   - NormaliserRegistry: Selects appropriate normaliser
//   - Chunker: Splits normalised text into chunks
//   - DocumentStore: Document and chunk persistence
//   - QuestionStore: Question and review state persistence
//   - IndexStore: Per-document vector index persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, document search is disabled.
//   - LLMService: Language model operations. Without it, summaries, question generation and chat are disabled.
//   - Metrics: Operational counters. A no-op recorder is used when nil.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
