// Package contract is the runtime half of gocontract's design-by-contract
// checks.
//
// Methods are annotated with a directive naming a validity predicate on the
// same receiver:
//
//	//contract:require Valid
//	func (c *Counter) Increment() {
//		c.value++
//	}
//
// Running contractgen (usually through go generate) prepends a guard to the
// body of every annotated method:
//
//	//contract:require Valid
//	func (c *Counter) Increment() {
//		contract.Require(c.Valid(), "(*Counter).Increment", "Valid")
//		c.value++
//	}
//
// The guard is evaluated on every call, before the original body. When the
// predicate holds the body runs unchanged. When it does not, Require reports a
// Violation and panics: a broken contract is a bug in the caller, not an error
// to route around, so nothing in this package recovers it.
//
// Code in the same package may still mutate receiver state directly without
// going through an annotated method. Contracts guard the entry points, not
// every field write.
package contract
