// Package connectors holds sources that feed documents into recall
// without an explicit ingest command.
package connectors
