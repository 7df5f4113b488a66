// Package annotate turns contract directives into precondition guards.
//
// A method is annotated with a directive comment naming a validity predicate
// defined on the same receiver type:
//
//	//contract:require Valid
//	func (c *Counter) Increment() {
//		c.value++
//	}
//
// ParseFile collects one Method descriptor per annotated method and reports
// malformed or misapplied directives with their source positions. Rewrite then
// prepends a guard statement to each annotated body:
//
//	contract.Require(c.Valid(), "(*Counter).Increment", "Valid")
//
// The source is edited by splicing bytes at statement boundaries, so the
// method's name, receiver, parameters, results, comments and body are kept
// exactly as written. Running Rewrite on its own output changes nothing.
//
// Whether the predicate actually exists with a func() bool signature is a
// type question answered by package typecheck.
package annotate
