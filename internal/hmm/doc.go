// Package hmm models an agent wandering a colour grid as a discrete hidden
// Markov model and runs exact inference over it.
//
// States are grid cells, numbered y*width + x. BuildModel derives the
// transition matrix from cell legality and one diagonal sensor matrix per
// colour. SimulateTrajectory draws a ground-truth walk with noisy colour
// readings. Filter, Smooth and Viterbi recover the hidden walk from the
// readings alone.
//
// A Model is immutable once built and safe to share between goroutines.
// The random source handed to SimulateTrajectory is advanced by the call
// and must not be used concurrently.
package hmm
