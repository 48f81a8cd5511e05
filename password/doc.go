// Package password provides argon2id credential hashing in PHC string
// format plus the composition policy applied before any hash is produced.
//
// Hashes are self-describing; Verify derives all parameters from the stored
// string, so cost upgrades roll forward without breaking existing
// credentials (see NeedsUpgrade).
package password
