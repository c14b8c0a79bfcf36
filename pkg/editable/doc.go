// Package editable implements the edit, delete and post lifecycle of
// updates and comments.
//
// An Editor owns the local Display/Edit mode of one entity. Modes are never
// persisted and entering Edit reuses the text already on screen, so only the
// entity's author is offered it. A successful Edit or Delete hands the
// mutation to the invalidation orchestrator; a successful Delete also drops
// the entity from the locally held List before any refetch lands.
//
// Composer posts new updates and comments.
package editable
