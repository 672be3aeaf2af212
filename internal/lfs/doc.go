// Package lfs replays Git-LFS objects between organizations. Each selected
// repository is mirror-cloned from the source, its LFS objects fetched in
// full, and pushed to the destination remote; the local mirror is removed
// afterwards. Only repositories that already exist at the destination are
// processed.
package lfs
