package llm

import "context"

// Usage reports token consumption for one backend call as counted by the
// provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Request carries one instruction to the generative backend.
type Request struct {
	Instruction string
	Temperature float64
	MaxTokens   int
}

// Response is the normalized backend reply.
type Response struct {
	Content string
	Usage   Usage
}

// Client abstracts a generative text backend. Implementations must return a
// non-empty Content or an error; errors wrap domain.ErrProviderFailure so the
// pipeline can classify them.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}
