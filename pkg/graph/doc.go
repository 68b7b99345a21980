// Package graph defines the design graph for fluidcsg.
// The design graph is an immutable DAG of primitives, booleans, transforms,
// channels, and groups that describes a microfluidic part before it is
// tessellated into triangle meshes.
package graph
