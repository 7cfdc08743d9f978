// Package translate provides word translation for the report's translation column.
// Providers call OpenAI, Gemini or the offline JMdict index; Cached and Guarded wrap
// any provider with an LRU / persistent cache and a circuit breaker.
package translate
