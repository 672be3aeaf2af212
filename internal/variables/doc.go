// Package variables copies Actions configuration variables between
// organizations. Organization-scoped variables keep their visibility, with
// selected-repository grants remapped by name at the destination, and
// repository-scoped variables follow for every repository that exists on
// both sides. Values transfer as plaintext; the platform does not treat
// configuration variables as secrets.
package variables
