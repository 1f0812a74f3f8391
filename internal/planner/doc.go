// Package planner turns a pool of candidate people into a seating plan.
//
// Classify splits candidates into cohesion groups and sorts them into
// all-female, all-male and mixed buckets. Planner then packs groups into
// blocks, never splitting a group, and accepts the first packing whose female
// share falls inside the configured band. The search is bounded: six fixed
// orderings followed by a configurable number of random shuffles. A failed
// search is reported as *domain.UnsatisfiableError; it does not prove that
// no valid plan exists.
package planner
