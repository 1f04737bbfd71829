// Package repositories implements SQLite persistence for client-side state.
//
// Key Implementations:
//   - [CredentialRepository] : the single bearer token for this database file (one session per file)
//   - [UploadHistoryRepository] : summaries of bulk uploads run from this machine
//
// Tables are created by the embedded migrations in the shared package.
package repositories
