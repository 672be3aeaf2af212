// Package githubapi wraps the GitHub REST and GraphQL APIs for one platform
// instance. Every Client is bound to a single organization and bearer token;
// source and target credentials are never mixed inside one client. The
// package also houses the rate-limit retry policy and the full-drain
// pagination helper shared by all migrators.
package githubapi
