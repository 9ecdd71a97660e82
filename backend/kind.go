package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Kind selects the call shape used to talk to a model. It is fixed for the
// lifetime of a Backend.
type Kind string

const (
	KindDefault   Kind = "default"
	KindOllama    Kind = "ollama"
	KindWatsonx   Kind = "watsonx"
	KindLlamaCpp  Kind = "llama-cpp"
	KindAnthropic Kind = "anthropic"
)

// ErrUnknownKind is returned by ParseKind for an unrecognized backend name.
var ErrUnknownKind = errors.New("unknown backend kind")

// Kinds lists every supported backend kind.
func Kinds() []Kind {
	return []Kind{KindDefault, KindOllama, KindWatsonx, KindLlamaCpp, KindAnthropic}
}

// ParseKind maps a configuration string onto a Kind. Matching ignores case and
// surrounding space; the empty string selects KindDefault.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindDefault, nil
	}
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string { return string(k) }
