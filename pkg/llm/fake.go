package llm

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a scripted Generator for tests. Responses are returned in order;
// when Respond is set it is used instead.
type Fake struct {
	mu        sync.Mutex
	Responses []string
	Respond   func(req Request) (string, error)
	Requests  []Request
}

func (f *Fake) Generate(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Respond != nil {
		return f.Respond(req)
	}
	if len(f.Responses) == 0 {
		return "", fmt.Errorf("fake generator: no response scripted for %s", req.Stage)
	}
	out := f.Responses[0]
	f.Responses = f.Responses[1:]
	return out, nil
}

// Calls returns the requests made for stage.
func (f *Fake) Calls(stage string) []Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []Request
	for _, r := range f.Requests {
		if r.Stage == stage {
			out = append(out, r)
		}
	}
	return out
}
