package ai

import "context"

// MockClient is a canned-response Client for tests. Set Response or Err
// before use; Calls counts Complete invocations.
type MockClient struct {
	Response string
	Err      error
	Name     string
	Calls    int
	Prompts  []string
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Complete(_ context.Context, prompt string) (string, error) {
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockClient) ModelName() string {
	if m.Name == "" {
		return "mock-model"
	}
	return m.Name
}

func (m *MockClient) Close() error { return nil }
