// Package identity loads the optional source-login to target-login mapping
// consulted while replaying team membership. The relation is intended to be
// injective but is not enforced; duplicates keep the last entry.
package identity
