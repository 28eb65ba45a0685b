// Package grid owns the world map the agent moves through.
//
// Responsibilities: parsing map text into a Grid, cell legality, per-cell
// colour, random colouring and random map generation.
// Key types: Grid, Color, FormatError.
//
// Coordinates put (0,0) at the bottom-left cell. The first line of a map
// file is therefore the top row (y = height-1).
//
// Map glyphs:
//
//	.        floor cell, colour assigned later by Paint
//	#        wall cell
//	r g b y  floor cell with a fixed colour
package grid
