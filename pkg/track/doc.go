// Package track holds the control-node network of a path: the nodes an
// author places, the greedy chain that connects them and the evenly spaced
// curve samples baked for every segment.
//
// Nodes live in an arena owned by a Network and refer to each other by index,
// so next/prev links never own their targets.
package track
