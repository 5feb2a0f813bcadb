// Package websocket carries the balance reconciliation channel between the
// server and every open view of a session.
//
// Display layers are allowed to update a shown balance optimistically: when
// the user claims a completion, the view adds the expected reward locally and
// shares the delta with its sibling views (other tabs, other components)
// before the server confirms. The contract that keeps those views honest:
//
//   - While a completion request is outstanding, the view must not fire a
//     second one for the same task; there is no cancellation once sent.
//   - If the authoritative response reports failure, the view rolls back the
//     optimistic delta exactly — it does not merely re-fetch.
//   - On every successful completion or administrative balance overwrite, the
//     server pushes a BalanceUpdate to every connected client. Views replace
//     their cached balance using the merge rule below.
//   - When two cached balances for the same principal disagree (last-writer
//     races between tabs), both sides keep the maximum. Reconcile implements
//     the rule; the merged value is never the sum.
package websocket

// Reconcile merges two cached balance observations for the same principal.
// The higher value wins: a stale view can only lag behind the authoritative
// balance, never run ahead of a committed one.
func Reconcile(a, b int) int {
	if a > b {
		return a
	}
	return b
}
