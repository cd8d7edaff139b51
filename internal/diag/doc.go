// Package diag defines the diagnostic model the aidacc driver reports with.
//
// Diagnostic is the central record: a Severity, a stable Code (rendered as
// AIDnnnn), a short message, the primary declaration location and optional
// notes. Producers emit through a Reporter, usually a BagReporter, and the
// CLI renders the sorted, deduplicated Bag with Render.
//
// Loader errors, declaration faults, backend failures and ledger conflicts all
// map onto codes in their own range so scripts can match on them.
package diag
