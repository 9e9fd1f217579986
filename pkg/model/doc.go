// Package model defines the already-parsed entity graph consumed by the
// reconstruction pipeline: advanced B-reps as faces bounded by loops of
// oriented edges, and swept-area solids. A Model also carries the
// model-wide tolerance and the workaround registry bound to it.
package model
