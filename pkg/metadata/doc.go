// Package metadata keeps a small JSON manifest in each course folder listing
// the files fetched into it, their portal item ids and sizes.
package metadata
