// Package gate defines the 15-bit system capability vocabulary aegis's own
// mutation API is gated on, and the Require check every verb runs before
// touching pkg/txn. Gate-protected verbs never bypass this package except
// during pkg/bootstrap's genesis transaction.
package gate

import (
	"strconv"

	"github.com/cuemby/aegis/pkg/aegis/aegiserr"
	"github.com/cuemby/aegis/pkg/registry"
	"github.com/cuemby/aegis/pkg/resolver"
	bolt "go.etcd.io/bbolt"
)

// SystemCap bits are defined on the "_type:_type" scope and control aegis's
// own administrative surface: creating types, creating entities of a type,
// granting/revoking, defining capabilities, delegating via inheritance, and
// reading system-internal state.
const (
	TypeCreate   uint64 = 1 << iota // create a new _type:* scope
	TypeDelete                      // delete a _type:* scope
	EntityCreate                    // create an entity of a given type
	EntityDelete                    // delete an entity of a given type
	GrantRead                       // read grants on a scope
	GrantWrite                      // create/modify grants on a scope
	GrantDelete                     // revoke grants on a scope
	CapRead                         // read role capability definitions
	CapWrite                        // define/modify role capabilities
	CapDelete                       // remove role capability definitions
	DelegateRead                    // read inheritance edges
	DelegateWrite                   // create/modify inheritance edges
	DelegateDelete                  // remove inheritance edges
	SystemRead                      // view _type:* entities, grants, and caps
	PasswordAdmin                   // manage credentials on a type's entities
)

// Composite bit groups mirror the ones spec.md's capability vocabulary names
// as shorthand for common administrative bundles.
const (
	GrantAdmin    = GrantRead | GrantWrite | GrantDelete
	CapAdmin      = CapRead | CapWrite | CapDelete
	DelegateAdmin = DelegateRead | DelegateWrite | DelegateDelete
	ReadOnly      = GrantRead | CapRead | DelegateRead

	// EntityAdmin is full control over entities of a type: create, delete,
	// grant, define capabilities, and delegate.
	EntityAdmin = EntityCreate | EntityDelete | CapAdmin | GrantAdmin | DelegateAdmin
	// TypeAdmin is full control over types plus entity admin, system
	// visibility, and credential management.
	TypeAdmin = TypeCreate | TypeDelete | EntityAdmin | SystemRead | PasswordAdmin
	// All is every defined SystemCap bit.
	All uint64 = 0x7FFF
)

// Bits 62 and 63 are reserved and intentionally undefined: aegis exposes
// only the string-entity API, so a future numeric-id projection of the
// same capability space can claim the two high bits without a breaking
// change to existing masks.

// BitLabels documents each SystemCap bit's name, in bit order, for the
// bootstrap genesis sequence to register (keyed by bit alone, not by scope) and for
// introspection tools to render masks as names.
var BitLabels = []string{
	"type-create",
	"type-delete",
	"entity-create",
	"entity-delete",
	"grant-read",
	"grant-write",
	"grant-delete",
	"cap-read",
	"cap-write",
	"cap-delete",
	"delegate-read",
	"delegate-write",
	"delegate-delete",
	"system-read",
	"password-admin",
}

// Require checks that actor's effective mask on scope contains every bit of
// required, returning a typed *aegiserr.InsufficientPermissionError
// (unwrapping to aegiserr.ErrInsufficientPermission) when it does not.
func Require(tx *bolt.Tx, actorLabel string, actor, scope, required uint64) error {
	have := resolver.GetMask(tx, actor, scope)
	if have&required == required {
		return nil
	}
	return &aegiserr.InsufficientPermissionError{
		Actor:    actorLabel,
		Scope:    scopeLabel(tx, scope),
		Required: required,
		Have:     have,
	}
}

func scopeLabel(tx *bolt.Tx, scope uint64) string {
	if label, err := registry.Label(tx, scope); err == nil {
		return label
	}
	return "#" + strconv.FormatUint(scope, 10)
}
