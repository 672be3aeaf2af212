// Package execshell provides a typed wrapper around external tool execution.
//
// It defines ShellCommand and ExecutionResult models, the ShellExecutor which
// logs command lifecycles through zap, and typed failures for non-zero exit
// codes. The migrator invokes git, git-lfs, docker, and npm exclusively
// through this package so that every external side effect carries the same
// exit-status contract.
package execshell
