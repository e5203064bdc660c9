package huggingface

import "time"

// Config holds configuration for the Hugging Face backend.
type Config struct {
	// URL is the full question-answering endpoint, e.g.
	// "https://api-inference.huggingface.co/models/distilbert-base-uncased-distilled-squad".
	URL string

	// APIKey is sent as a bearer token (optional).
	APIKey string

	// Timeout for individual HTTP requests. Defaults to 120s.
	Timeout time.Duration

	// WaitForModel asks the hosted Inference API to block while a cold model
	// loads instead of failing with 503.
	WaitForModel bool
}
