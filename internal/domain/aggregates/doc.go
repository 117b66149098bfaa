// Package aggregates defines the write-side contracts for rows that own
// multi-step invariant updates. An aggregate method is the only sanctioned
// way to mutate its row: it opens the transaction, takes the optimistic
// version guard, and reports failures through the typed error codes in this
// package. Read-model/reporting queries stay on the table repos and never go
// through an aggregate.
package aggregates
