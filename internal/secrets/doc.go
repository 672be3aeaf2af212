// Package secrets migrates Actions secrets. Secret values cannot be read
// back from the platform, so live migration consumes a CSV of plaintext
// values, seals each value under the destination scope's current public key
// (libsodium anonymous sealed box), and uploads only the ciphertext. Dry-run
// mode instead discovers every org and repo secret name on the source and
// writes a CSV skeleton for the operator to fill in.
package secrets
