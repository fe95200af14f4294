// Package normalisers turns raw files into plain text.
//
// Each format lives in its own subpackage and implements driven.Normaliser.
// Registry dispatches a raw document to the best match: MIME type first,
// then file extension, highest priority winning.
package normalisers
