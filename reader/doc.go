// Package reader defines the boundary to the external analyses that turn
// extracted document text into structured readings.
//
// A Reader is one analysis provider (an "identity" such as "claude" or
// "codex"); a task may request zero, one or several of them, and each
// invocation fails independently of the others. The Provider interface
// aggregates the configured readers and fixes their priority order.
//
// Two implementation sub-packages exist:
//
//   - reader/llm: production implementation over OpenAI-compatible chat APIs
//   - reader/mock: test doubles for unit testing without external services
package reader
