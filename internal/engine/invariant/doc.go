// Package invariant switches structural self-checks of the document engine
// on and off.
//
// The trees in the engine expose CheckProperties/CheckInvariants methods that
// validate colouring, balance and cached aggregates. In regular builds those
// checks only run when called explicitly (tests, Engine.Verify). Building with
// the textcore_debug tag makes every mutation re-validate the structure it
// touched and panic on the first violation:
//
//	go test -tags textcore_debug ./...
package invariant
