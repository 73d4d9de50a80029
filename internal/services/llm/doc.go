// Package llm routes pipeline steps to chat completion providers.
//
// A step mapping names an ordered list of provider/model attempts. Chain runs
// them in order under one RetryPolicy: each attempt is retried on HTTP
// 408/429/5xx, network timeouts, empty content, and rejected (unparseable)
// content with bounded exponential backoff, honouring Retry-After. When an
// attempt exhausts its retries the chain falls through to the next one.
//
// Providers:
//   - ChatClient: OpenAI-compatible HTTP endpoint with web-search extensions
//     and citation lists (used for research).
//   - OpenAIProvider: generation through the openai-go SDK.
//
// Consecutive calls to one provider are spaced by a Pacer (sleep before call).
// Every successful call is priced with EstimateCost and recorded on the
// registry Meter.
package llm
