// Package likes implements the optimistic like counter.
//
// The transition logic is pure: Flip computes the optimistic state and
// Settle decides what survives a settlement. Toggle binds them to a viewer,
// a mutation runner and a status notifier.
//
// Concurrent toggles of the same entity race on purpose. The displayed count
// can drift from the server by one until the view is loaded fresh again.
package likes
