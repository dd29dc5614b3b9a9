// Package scan builds a size-annotated tree for a directory.
//
// Directories are listed concurrently over a bounded pool of workers; each
// worker folds its share of a directory's entries into a private slice and
// merges it into the directory once. After the build a single post-order pass
// computes every directory's size and the largest file size in the tree.
package scan
