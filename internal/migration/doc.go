// Package migration holds the pieces shared by every per-resource migrator:
// the run report accumulated as {items, errors}, the source/target client
// pair, endpoint settings, and token source resolution. Item-level failures
// land in the report and never escalate; the report is always emitted at the
// end of a run, even when every item failed.
package migration
