// Package app is the request orchestration layer. Every external
// operation runs the same cycle: load the persisted state, apply the
// domain mutations, persist the whole state once, and only then return.
// A failed or aborted operation never persists a partial mutation.
package app
