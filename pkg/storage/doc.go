// Package storage owns the on-disk layout: one folder per course under the
// output directory, named by CourseDirName.
//
// Files are written to a temporary name and renamed into place. Callers check
// Exists first; files already present are never overwritten.
package storage
