// Package hooks wraps ordinary functions with automatic attestation.
//
// Each wrapper hashes the wrapped call's input and result and records
// an attestation after a successful call. Attestation never blocks the
// wrapped function and never alters its return values. Failed calls
// are not attested.
package hooks

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	"strings"
	"time"

	treeship "github.com/treeship/treeship-go"
)

// ErrNilClient is returned by the constructors when Options.Client
// holds a nil *treeship.Client or other nil pointer.
var ErrNilClient = errors.New("hooks: nil client")

// Func is the shape of function the wrappers accept.
type Func[I, O any] func(context.Context, I) (O, error)

// Attester is the slice of the SDK client the wrappers need.
type Attester interface {
	AttestContext(ctx context.Context, req treeship.AttestRequest) (*treeship.AttestResult, error)
}

// Options tunes a wrapper. The zero value uses the process-wide
// default client, the resolved agent, and an action derived from the
// wrapped function's name.
type Options struct {
	// Action overrides the derived action description.
	Action string
	// Agent overrides the client's resolved agent slug.
	Agent string
	// Client overrides the attestation client. Leave unset for
	// treeship.Default().
	Client Attester
}

func (o Options) attester() (Attester, error) {
	if o.Client == nil {
		return treeship.Default(), nil
	}
	// A typed nil pointer stored in the interface would panic on
	// first use, so reject it at construction.
	if v := reflect.ValueOf(o.Client); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, ErrNilClient
	}
	return o.Client, nil
}

// Memory wraps a function that reads or writes persistent state.
// Attestations carry a "[memory]" action prefix with the input and
// result hashes.
func Memory[I, O any](fn Func[I, O], opts Options) (Func[I, O], error) {
	client, err := opts.attester()
	if err != nil {
		return nil, err
	}
	action := opts.Action
	if action == "" {
		action = funcName(fn) + " executed"
	}
	return func(ctx context.Context, in I) (O, error) {
		out, err := fn(ctx, in)
		if err != nil {
			return out, err
		}
		attest(ctx, client, "[memory] "+action, opts.Agent, map[string]any{
			"inputs_hash": treeship.Hash(in),
			"result_hash": treeship.Hash(out),
		})
		return out, nil
	}, nil
}

// Reasoner exposes the reasoning behind a result. Results implementing
// it get a reasoning_hash recorded alongside the result hash.
type Reasoner interface {
	Reasoning() string
}

// Reasoning wraps a decision-making function. Attestations carry a
// "[reasoning]" prefix. When the result implements Reasoner, or is a
// map with a "reasoning" key, the reasoning text is hashed too.
func Reasoning[I, O any](fn Func[I, O], opts Options) (Func[I, O], error) {
	client, err := opts.attester()
	if err != nil {
		return nil, err
	}
	action := opts.Action
	if action == "" {
		action = funcName(fn) + " decision"
	}
	return func(ctx context.Context, in I) (O, error) {
		out, err := fn(ctx, in)
		if err != nil {
			return out, err
		}
		inputs := map[string]any{
			"inputs_hash": treeship.Hash(in),
			"result_hash": treeship.Hash(out),
		}
		if reasoning, ok := extractReasoning(out); ok {
			inputs["reasoning_hash"] = treeship.Hash(reasoning)
		}
		attest(ctx, client, "[reasoning] "+action, opts.Agent, inputs)
		return out, nil
	}, nil
}

// Performance wraps a function and records its wall-clock duration.
// Attestations carry a "[perf]" prefix. Calls finishing under
// threshold are not attested; a zero threshold attests every call.
func Performance[I, O any](fn Func[I, O], threshold time.Duration, opts Options) (Func[I, O], error) {
	client, err := opts.attester()
	if err != nil {
		return nil, err
	}
	action := opts.Action
	if action == "" {
		action = funcName(fn) + " completed"
	}
	return func(ctx context.Context, in I) (O, error) {
		start := time.Now()
		out, err := fn(ctx, in)
		if err != nil {
			return out, err
		}
		elapsed := time.Since(start)
		if threshold > 0 && elapsed < threshold {
			return out, nil
		}
		attest(ctx, client, "[perf] "+action, opts.Agent, map[string]any{
			"inputs_hash":  treeship.Hash(in),
			"execution_ms": elapsed.Milliseconds(),
		})
		return out, nil
	}, nil
}

func attest(ctx context.Context, client Attester, action, agent string, inputs map[string]any) {
	// Failures already come back as data, not errors, so only
	// configuration errors reach err, and those are ignored too.
	_, _ = client.AttestContext(ctx, treeship.AttestRequest{
		Action: action,
		Inputs: inputs,
		Agent:  agent,
	})
}

func extractReasoning(v any) (string, bool) {
	if r, ok := v.(Reasoner); ok {
		return r.Reasoning(), true
	}
	if m, ok := v.(map[string]any); ok {
		if reasoning, ok := m["reasoning"].(string); ok {
			return reasoning, true
		}
	}
	return "", false
}

func funcName(fn any) string {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "anonymous"
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
