package connection

import (
	"context"

	"github.com/viant/mcpconsole/schema"
)

// Reference identifies the prompt or resource template being completed
type Reference struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// PromptReference returns a reference to prompt name
func PromptReference(name string) *Reference {
	return &Reference{Type: "ref/prompt", Name: name}
}

// ResourceReference returns a reference to a resource template URI
func ResourceReference(URI string) *Reference {
	return &Reference{Type: "ref/resource", URI: URI}
}

type completeArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type completeParams struct {
	Ref      *Reference        `json:"ref"`
	Argument *completeArgument `json:"argument"`
}

type completeResult struct {
	Completion struct {
		Values  []string `json:"values"`
		Total   *int     `json:"total,omitempty"`
		HasMore *bool    `json:"hasMore,omitempty"`
	} `json:"completion"`
}

// HandleCompletion returns completion values for argName. Once the server
// answers with MethodNotFound, completion is disabled for the connection and
// an empty result is returned without further requests.
func (m *Manager) HandleCompletion(ctx context.Context, ref *Reference, argName, value string) ([]string, error) {
	if !m.State().CompletionsSupported {
		return []string{}, nil
	}
	request := &Request{
		Method: schema.MethodComplete,
		Params: &completeParams{Ref: ref, Argument: &completeArgument{Name: argName, Value: value}},
	}
	result, err := MakeRequest[completeResult](ctx, m, request, WithoutAlert())
	if err != nil {
		if schema.IsMethodNotFound(err) {
			m.disableCompletions()
			return []string{}, nil
		}
		m.alert(ctx, "Error", err)
		return nil, err
	}
	if result.Completion.Values == nil {
		return []string{}, nil
	}
	return result.Completion.Values, nil
}

func (m *Manager) disableCompletions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || !m.state.CompletionsSupported {
		return
	}
	state := m.state
	state.CompletionsSupported = false
	m.setState(state)
}
