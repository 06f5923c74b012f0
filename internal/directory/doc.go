// Package directory holds the directory browser state of one console session.
//
// A Tree caches DirectoryNode lists fetched one level at a time from a Source and can
// temporarily be replaced by a flat search view. A Selection is the deduplicated set of
// users a bulk action targets. The Resolver turns a checkbox change on a tree node into a
// Selection delta, loading a container's children on demand.
//
// Selection is shallow: checking a container selects the user-classed children that are
// loaded for it, never grandchildren that were not expanded.
//
// Every fetch is stamped with a generation per target (root, children of a DN, search).
// A response is applied only if no newer request for the same target was started, so a slow
// response can never overwrite the result of a later one.
package directory
