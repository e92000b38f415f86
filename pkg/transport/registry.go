package transport

import (
	"fmt"
	"sort"
	"strings"

	"github.com/papercomputeco/relay/pkg/llm/family"
)

// Registry holds the transports built at startup. Constructor errors are
// retained so a misconfigured transport is reported per request instead of
// preventing the server from starting.
type Registry struct {
	transports     map[string]Transport
	errs           map[string]error
	defaultBedrock string
}

// NewRegistry creates an empty Registry. defaultBedrock names the transport
// used for Bedrock-hosted families when a request does not pick one.
func NewRegistry(defaultBedrock string) *Registry {
	if defaultBedrock == "" {
		defaultBedrock = Bedrock
	}

	return &Registry{
		transports:     make(map[string]Transport),
		errs:           make(map[string]error),
		defaultBedrock: defaultBedrock,
	}
}

// Register records the outcome of building a transport.
func (r *Registry) Register(name string, t Transport, err error) {
	if err != nil {
		r.errs[name] = err
		delete(r.transports, name)
		return
	}

	r.transports[name] = t
	delete(r.errs, name)
}

// Get returns the named transport, or the error its constructor returned.
func (r *Registry) Get(name string) (Transport, error) {
	if err, ok := r.errs[name]; ok {
		return nil, fmt.Errorf("transport %s unavailable: %w", name, err)
	}

	t, ok := r.transports[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownTransport, name, strings.Join(r.Names(), ", "))
	}

	return t, nil
}

// Names returns the sorted names of every registered transport, including
// those whose constructor failed.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.transports)+len(r.errs))
	for n := range r.transports {
		names = append(names, n)
	}
	for n := range r.errs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Errors returns a copy of the constructor errors by transport name.
func (r *Registry) Errors() map[string]error {
	out := make(map[string]error, len(r.errs))
	for n, err := range r.errs {
		out[n] = err
	}
	return out
}

// RouteName picks the transport name for a model. An explicit provider
// always wins. Otherwise OpenAI models use the openai transport, direct
// Anthropic ids ("claude-...") use the anthropic transport, and everything
// else goes to the default Bedrock transport.
func (r *Registry) RouteName(provider, modelID string) string {
	if provider != "" {
		return provider
	}

	f := family.Resolve(modelID)
	switch f {
	case family.OpenAI:
		return OpenAI
	case family.Anthropic:
		if strings.HasPrefix(strings.ToLower(modelID), "claude-") {
			return Anthropic
		}
		return r.defaultBedrock
	case family.Meta, family.Mistral, family.Cohere, family.AmazonTitan, family.AI21, family.Unknown:
		return r.defaultBedrock
	default:
		return r.defaultBedrock
	}
}

// Route resolves provider and model to a ready transport.
func (r *Registry) Route(provider, modelID string) (Transport, error) {
	return r.Get(r.RouteName(provider, modelID))
}
