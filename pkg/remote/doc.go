// Package remote retrieves the memory document a local store is merged with.
//
// A Fetcher turns a source URL into a validated memory.Document. Resolver
// dispatches on the URL scheme:
//   - file:// URLs and plain paths are read from disk
//   - http:// and https:// URLs are fetched with a GET request
//
// Remote documents must carry the same marker as local ones; anything else is
// rejected before it reaches a merge.
package remote
