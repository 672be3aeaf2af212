// Package packages migrates published packages between organizations. The
// driver enumerates packages and versions for one ecosystem, resolves the
// asset list per version through an ecosystem-specific resolver, downloads
// assets into a local staging tree in concurrency-bounded batches, and
// republishes them at the destination. Versions already present at the
// destination are skipped, so re-runs perform no uploads.
package packages
