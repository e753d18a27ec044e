// Package watch provides the recursive file watcher behind onchange's
// dispatch loop. It monitors a directory tree, drops events on excluded
// paths, coalesces rapid events into batches, and hands each batch to the
// caller through a single blocking call.
package watch
