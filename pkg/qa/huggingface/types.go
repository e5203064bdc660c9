package huggingface

// qaRequest is the question-answering pipeline request body.
type qaRequest struct {
	Inputs  qaInputs   `json:"inputs"`
	Options *qaOptions `json:"options,omitempty"`
}

type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type qaOptions struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
}

// qaResponse is the pipeline output for a single question.
type qaResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  *int    `json:"start"`
	End    *int    `json:"end"`
}
