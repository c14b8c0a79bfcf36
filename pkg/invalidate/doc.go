// Package invalidate keeps cached views consistent after successful
// mutations.
//
// A static Table maps each (entity kind, operation) to the view templates
// that must be invalidated:
//
//	update  create/edit  goal-updates-by-user(actor)
//	                     + all-updates, recent-updates-by-goal(goal) from the aggregate feed
//	update  delete       goal-updates-by-user(actor), all-updates, recent-updates-by-goal(goal)
//	comment any          all-updates
//	like    toggle       nothing (reconciled by the optimistic toggle)
//
// Invalidation is conservative: when a template's parameter is unknown,
// every cached view with that name is invalidated. NewTable refuses a table
// that lacks a row for a reachable pair, so a missing dependency is caught
// at construction instead of showing up as a stale view.
package invalidate
