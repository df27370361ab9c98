// Package harness provides scenario-driven conformance testing for
// repository declarations.
//
// Scenarios are YAML files that declare a record schema, a repository,
// seed rows, and a sequence of operation invocations with expected
// results. The harness registers the repository against an in-memory
// SQLite database, applies the seed, runs each step, and checks the
// expectations.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	record:
//	  name: User
//	  table: users
//	  fields:
//	    - { name: id, type: string, primary_key: true }
//	    - { name: age, type: int }
//	repository:
//	  name: UserRepository
//	  operations:
//	    - name: find_all_by_age_gt
//	      args:
//	        - { name: age, type: int }
//	seed:
//	  - { id: u1, age: 30 }
//	steps:
//	  - invoke: find_all_by_age_gt
//	    args: { age: 20 }
//	    expect:
//	      count: 1
//	      records:
//	        - { id: u1 }
//
// A step over a modifying template may expect rows_affected instead of
// (or alongside) a count.
//
// A scenario may instead declare resolve_error with a resolution error
// code, asserting that registration itself fails.
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite database, and step results
// serialize through canonical JSON, so the same scenario produces the
// same snapshot across runs. Golden files live in testdata/golden.
package harness
