// Package core defines the shared data model of the deliberation engine:
// discussions, rounds, participant responses, the fixed stage sequence and
// the progress events surfaced to front ends.
//
// Everything here is plain data. The types are created by the engine's
// sequencer, mutated only at round boundaries and treated as immutable once a
// round has been scored. Concurrency control lives in the engine, not in
// these types.
package core
