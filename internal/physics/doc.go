// Package physics implements the pairwise force model.
//
// A Law computes the force one body exerts on another. Gravity is the
// Newtonian inverse-square law; ForcesFromBodies applies a Law to every
// unordered pair in a population exactly once.
package physics
