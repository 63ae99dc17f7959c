// Package instance keeps a single provider process per lock file. The lock is
// an advisory flock, so it is released by the kernel if the process dies.
package instance
