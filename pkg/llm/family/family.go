// Package family resolves a model identifier to the closed set of provider
// families that decide request and response shapes.
package family

import (
	"fmt"
	"strings"
)

// Family is the provider family tag derived from a model id.
type Family string

// Supported family constants
const (
	Anthropic   Family = "anthropic"
	Meta        Family = "meta"
	Mistral     Family = "mistral"
	Cohere      Family = "cohere"
	AmazonTitan Family = "amazon-titan"
	AI21        Family = "ai21"
	OpenAI      Family = "openai"
	Unknown     Family = "unknown"
)

// regionPrefixes are Bedrock cross-region inference profile prefixes, e.g.
// "us.anthropic.claude-3-5-sonnet-20241022-v2:0".
var regionPrefixes = []string{"us.", "eu.", "apac.", "us-gov."}

// rule maps a model id prefix to a family. Order matters: the first match wins.
type rule struct {
	prefix string
	family Family
}

var rules = []rule{
	{"anthropic.claude", Anthropic},
	{"claude-", Anthropic},
	{"meta.llama", Meta},
	{"mistral.", Mistral},
	{"cohere.", Cohere},
	{"amazon.titan", AmazonTitan},
	{"ai21.", AI21},
	{"gpt-", OpenAI},
	{"chatgpt-", OpenAI},
	{"o1", OpenAI},
	{"o3", OpenAI},
	{"o4", OpenAI},
}

// All returns every family, Unknown last.
func All() []Family {
	return []Family{Anthropic, Meta, Mistral, Cohere, AmazonTitan, AI21, OpenAI, Unknown}
}

// Resolve returns the family for a model id. Ids that match no rule resolve
// to Unknown, which callers must handle explicitly.
func Resolve(modelID string) Family {
	id := strings.ToLower(strings.TrimSpace(modelID))
	for _, p := range regionPrefixes {
		if strings.HasPrefix(id, p) {
			id = strings.TrimPrefix(id, p)
			break
		}
	}

	for _, r := range rules {
		if strings.HasPrefix(id, r.prefix) {
			return r.family
		}
	}

	return Unknown
}

// Parse converts a textual family tag into a Family.
// Returns an error if the tag is not recognized.
func Parse(name string) (Family, error) {
	f := Family(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case Anthropic, Meta, Mistral, Cohere, AmazonTitan, AI21, OpenAI, Unknown:
		return f, nil
	default:
		return Unknown, fmt.Errorf("unknown provider family: %q (supported: %v)", name, All())
	}
}

// String implements fmt.Stringer.
func (f Family) String() string {
	return string(f)
}

// IsKnown reports whether f is a concrete vendor family.
func (f Family) IsKnown() bool {
	return f != Unknown && f != ""
}

// Bedrock reports whether models of this family are hosted on Amazon Bedrock.
func (f Family) Bedrock() bool {
	switch f {
	case Anthropic, Meta, Mistral, Cohere, AmazonTitan, AI21:
		return true
	case OpenAI, Unknown:
		return false
	default:
		return false
	}
}
