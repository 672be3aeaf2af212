// Package teams rebuilds an organization's team forest at the destination.
//
// Discovery drains the full source listing, teams are ordered by an explicit
// parent-chain-depth topological sort so parents are always created before
// children, and membership plus repository permission grants are replayed
// with optional username remapping and identity-provider group linkage.
package teams
