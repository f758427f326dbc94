// Package heal applies or proposes fixes for failed health checks.
//
// A Healer is registered per check ID. The Manager looks up the healer for a
// result and acts according to the result's healing tier:
//
//   - Tier 1 (silent): the fix runs immediately, or is simulated in dry-run.
//   - Tier 2 (prompted): a prompt is returned; the fix runs only when the
//     caller confirms it.
//   - Tier 3 (manual), or a tier above the ceiling: a manual guide is returned.
//
// Before any fix runs, dry-run or real, the healer's target file is matched
// against a fixed blocklist of sensitive paths (.env files, credentials,
// secrets, key material and .ssh). A match refuses the fix. The blocklist
// cannot be configured away.
//
// When a BackupManager is configured, the target file is copied before the fix
// runs and restored if the fix fails.
package heal
