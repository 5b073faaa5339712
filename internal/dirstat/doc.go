// Package dirstat measures how much space the subdirectories of a directory use.
//
// A scan lists the immediate children of a directory and walks each child
// subtree using fastwalk for parallel traversal, summing regular file sizes.
// Unreadable paths inside a subtree are counted as skipped rather than
// failing the scan.
package dirstat
