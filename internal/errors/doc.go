// Package errors provides structured, coded errors for goalfeed.
//
// Every failure the mutation layer can surface maps to a registered code:
//
//   - F001 ValidationFailed: caught locally, before any network call
//   - F002 MutationFailed: network or non-2xx response from the remote API
//   - F003 dependency table incomplete: raised when an invalidation table
//     is constructed without a row for a reachable (kind, operation)
//   - F004 unknown route: no endpoint is configured for a descriptor
//   - F005 not found: an id the aggregate feed does not list
//   - F010-F012: configuration loading and validation
//
// Use errors.Is with the exported sentinels to branch on the taxonomy:
//
//	if errors.Is(err, ferrors.ErrValidationFailed) {
//	    // show the field message, nothing was sent
//	}
package errors
