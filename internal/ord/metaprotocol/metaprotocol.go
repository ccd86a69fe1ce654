// Package metaprotocol implements the registry of second-layer protocol
// names, and the validity/attachment operations gated on it (spec §4.8).
package metaprotocol

import (
	"errors"
	"reflect"
	"sync"

	"github.com/rawblock/ord-engine/internal/ord/areas"
	"github.com/rawblock/ord-engine/internal/ord/inscription"
)

// Error codes per spec §6.
const (
	CodeAlreadyRegistered = 1
	CodeProtocolMismatch  = 2
)

// Error is a metaprotocol-misuse abort. Callers are framework code —
// end users never see these (spec §7).
type Error struct {
	Code int
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// ErrAlreadyRegistered is returned when a metaprotocol name is
// registered twice.
var ErrAlreadyRegistered = &Error{Code: CodeAlreadyRegistered, Msg: "metaprotocol: name already registered"}

// ErrProtocolMismatch is returned when the declared metaprotocol on an
// inscription does not map, via the registry, to the caller's type.
var ErrProtocolMismatch = &Error{Code: CodeProtocolMismatch, Msg: "metaprotocol: protocol/type mismatch"}

// ErrUnauthorized is returned when Register is called by anyone other
// than SystemAuthority. Not one of the spec's two numbered error codes
// — registration authorization is a framework precondition, not a
// metaprotocol-usage error.
var ErrUnauthorized = errors.New("metaprotocol: caller is not the system authority")

// Authority identifies the caller of a registry mutation. Only
// SystemAuthority may register a metaprotocol.
type Authority string

// SystemAuthority is the reserved caller identity for genesis-time
// registration.
const SystemAuthority Authority = "system"

// Registry maps metaprotocol names to the Go type name that declared
// ownership of them, insertion-unique.
type Registry struct {
	mu     sync.Mutex
	byName map[string]string
}

// NewRegistry returns an empty metaprotocol registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]string)}
}

func typeName[T any]() string {
	var zero T
	return reflect.TypeOf(&zero).Elem().String()
}

// Register inserts name → type_name(T), failing if either the caller
// is not the system authority or the name is already taken.
func Register[T any](r *Registry, caller Authority, name string) error {
	if caller != SystemAuthority {
		return ErrUnauthorized
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return ErrAlreadyRegistered
	}
	r.byName[name] = typeName[T]()
	return nil
}

// Names returns every registered metaprotocol name, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// declaredTypeMatches reports whether insc's declared metaprotocol
// name resolves, via the registry, to exactly type_name(T).
func declaredTypeMatches[T any](r *Registry, insc *inscription.Inscription) bool {
	r.mu.Lock()
	protoType, ok := r.byName[insc.Metaprotocol]
	r.mu.Unlock()
	return ok && protoType == typeName[T]()
}

// Validity is the sealed metaprotocol-validity record (the
// "metaprotocol_validity" field), stored in the inscription's Fields bag
// keyed by its Go type name.
type Validity struct {
	ProtocolType  string
	IsValid       bool
	InvalidReason string
}

// SealValidity upserts a validity record for insc under protocol T. It
// fails with ErrProtocolMismatch unless insc's declared metaprotocol
// maps to exactly type_name(T).
func SealValidity[T any](r *Registry, insc *inscription.Inscription, isValid bool, invalidReason string) error {
	if !declaredTypeMatches[T](r, insc) {
		return ErrProtocolMismatch
	}
	if insc.Frozen {
		return inscription.ErrFrozen
	}
	areas.Add(insc.Fields, Validity{
		ProtocolType:  typeName[T](),
		IsValid:       isValid,
		InvalidReason: invalidReason,
	})
	return nil
}

// Attach adds obj as insc's attachment field for protocol T, keyed by
// type_name(T). Fails with ErrProtocolMismatch under the same condition
// as SealValidity.
func Attach[T any](r *Registry, insc *inscription.Inscription, obj T) error {
	if !declaredTypeMatches[T](r, insc) {
		return ErrProtocolMismatch
	}
	if insc.Frozen {
		return inscription.ErrFrozen
	}
	areas.Add(insc.Fields, obj)
	return nil
}
