// Package registry provides a generic thread-safe registry that preserves
// insertion order.
//
// Ordering matters wherever evaluation order is part of the contract: the
// analysis rule battery is a registry of named rules that must fire in the
// order they were declared, and MCP tools are listed in registration order.
//
// # Basic Usage
//
//	r := registry.New[string, int]()
//	r.Register("one", 1)
//	r.Register("two", 2)
//
//	r.Keys() // [one two]
//
// # Strict Registration
//
// Add refuses to overwrite an existing key, which catches copy-paste mistakes
// in declarative tables:
//
//	if err := rules.Add("conversation-memory", memoryRule); err != nil {
//	    return err // wraps ErrDuplicateKey
//	}
//
// # Thread Safety
//
// All methods are safe for concurrent use. Range iterates over a snapshot,
// so the callback may mutate the registry without affecting the iteration.
package registry
