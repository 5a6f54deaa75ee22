// Package memory provides the memory document that memsync keeps on disk.
// It defines the JSON file format, the Go types, and the operations the sync
// run depends on: load, append, merge-by-id and persist-with-backup.
package memory
