// Package report renders the outcome of an ingestion run for people.
//
// A failed run is described by a single summary line naming the failure
// kind, followed by remediation text for that kind. The full error chain is
// only written in verbose mode.
package report
