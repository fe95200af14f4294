// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the recall home directory.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.recall/config.toml
//   - PromptStore: user-editable prompt templates under ~/.recall/prompts
package file
