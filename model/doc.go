// Package model defines the provider-agnostic abstractions for generating
// agent output and the backends shipped with finassist.
//
// Backends:
//   - RuleModel: deterministic and offline; routes by keywords and fills tool
//     arguments with an ArgumentExtractor
//   - openai and anthropic subpackages: hosted LLMs with native tool calling
//   - MockModel and Func: scripted models for tests
//
// Breaker wraps any backend with a circuit breaker so a failing provider
// fails fast instead of holding every session for the full turn timeout.
package model
