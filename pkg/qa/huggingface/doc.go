// Package huggingface implements qa.Answerer against a Hugging Face style
// question-answering inference endpoint, such as the hosted Inference API or
// a self-hosted pipeline server running distilbert-base-uncased-distilled-squad.
//
// Request:  POST {URL} {"inputs": {"question": "...", "context": "..."}}
// Response: {"answer": "...", "score": 0.97, "start": 0, "end": 5}
//
// Some servers wrap the response in a one-element array; both forms are
// accepted. Offsets are character offsets and are validated against the
// context before they are returned.
package huggingface
