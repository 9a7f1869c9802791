// Package llm provides OpenAI-compatible chat and embedding clients.
//
// The compliance judge sends its rule-grounded prompt through Client.Complete,
// and the knowledge base embeds rule chunks and audit queries through
// Embedder.Embed. Any endpoint that speaks the OpenAI wire format works,
// including the Hugging Face router.
//
// # Retry Behaviour
//
// Both clients retry on HTTP 408/429/5xx errors, network timeouts, and empty
// completions with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Context cancellation aborts retries immediately.
//
// # JSON Helpers
//
// Models often wrap JSON in markdown fences or surround it with prose.
// StripCodeFences, ExtractJSONObject, and DecodeLLMJSON recover the payload.
package llm
