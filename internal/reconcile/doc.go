// Package reconcile merges batches of remote records into local storage.
//
// A reconcile handles one entity, one viewer and one context (the owner
// whose records the batch describes). It loads the matching local scope,
// diffs primary identifiers, and then creates, updates and deletes local
// records so the scope mirrors the batch:
//
//   - Snapshot entities end with exactly the batch's keys in scope.
//   - Stream entities only add and update; nothing is ever deleted.
//
// Validation (field sets, single owner, primary identifiers) runs before
// the first write, so a rejected batch leaves storage untouched. After
// that, writes commit one at a time and a failure leaves earlier writes in
// place.
//
// Per-entity behavior is supplied by an EntityPolicy. A policy that also
// implements ConflictResolver recovers from uniqueness conflicts on create
// by updating the existing record instead.
//
// Syncer drives the fixed import pipeline (user, friend, like, album,
// photo, link, notification, stream) against a remote.Client.
package reconcile
