// Package formats encodes BeamNG terrain files: the binary TER terrain block
// and the JSON level, terrain and material descriptors that reference it.
package formats

// Note: TER (terrain block) is implemented in ter.go
// Note: level, terrain and material descriptors are in level.go
