// Package qa defines the question answering capability consumed by the
// request handler and the helpers shared by its backends.
//
// A backend implements [Answerer]. Backends that return offsets are checked
// with [Validate]; backends that return only answer text locate the span in
// the context with [LocateSpan]. Either way, every result handed to callers
// satisfies the same contract: the answer is the exact substring of the
// context at code point offsets [Start, End) and the score lies in [0, 1].
//
// Decorators:
//   - [Instrument] records backend latency and outcome metrics
//   - [WithCache] serves repeated queries from a [Cache]
//
// Backend implementations live in sub-packages: huggingface, transformers,
// openai, and gemini.
package qa
