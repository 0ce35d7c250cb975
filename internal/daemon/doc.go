// Package daemon keeps a single synchronizer running per user.
//
// An Instance holds an exclusive file lock for its lifetime and records
// its process ID next to it so that `twsync status` and `twsync stop`
// can find the running process.
package daemon
