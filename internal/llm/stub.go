package llm

import "context"

// Stub is a scripted Completer for tests. Responses are returned in order;
// when exhausted, the last response repeats. A non-nil Err is returned for
// every call instead.
type Stub struct {
	Responses []string
	Err       error
	Calls     []string
	next      int
}

// Complete records the prompt and returns the next scripted response.
func (s *Stub) Complete(ctx context.Context, prompt string) (string, error) {
	s.Calls = append(s.Calls, prompt)
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Responses) == 0 {
		return "", nil
	}
	if s.next >= len(s.Responses) {
		return s.Responses[len(s.Responses)-1], nil
	}
	r := s.Responses[s.next]
	s.next++
	return r, nil
}

// Close is a no-op.
func (s *Stub) Close() error { return nil }
