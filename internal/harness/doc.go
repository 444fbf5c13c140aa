// Package harness runs reconcile scenarios written in YAML against a fresh
// in-memory store and compares the outcome with golden snapshots.
//
// # Scenario Format
//
//	name: simple_sync
//	description: "Remote drops friend 1 and adds friend 3"
//	viewer: alice
//	setup:
//	  - entity: user
//	    records: [{uid: 100}]
//	flow:
//	  - reconcile: friend
//	    records:
//	      - {uid1: 100, uid2: 2}
//	    expect:
//	      added: []
//	      deleted: ["1"]
//	assertions:
//	  - type: keys
//	    entity: friend
//	    keys: ["2"]
//
// Records carry only the fields of interest; every other tracked field is
// sent as null. Set exact: true on a batch to send the records as written,
// e.g. to provoke a schema mismatch.
//
// Setup batches must succeed. Flow steps may declare the error code they
// expect (expect.error) and the keys each list of the result must hold;
// an omitted list is not checked.
//
// # Assertion Types
//
//   - keys: the viewer's local keys of an entity, in storage order,
//     optionally limited to one owner context
//   - fields: a subset of the stored fields of one record
//   - run_count: number of logged runs, optionally by status
//   - struct_count: number of stored shared structs of one kind
//
// # Determinism
//
// Run ids come from a sequence generator ("run-1", "run-2", ...) so a
// scenario's trace is byte-identical across runs and can be snapshotted
// with goldie.
package harness
