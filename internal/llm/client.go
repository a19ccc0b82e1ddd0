package llm

import "context"

// Request is a single completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Client is the completion interface the analysis stages depend on.
// Production uses Claude; tests inject fakes.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
