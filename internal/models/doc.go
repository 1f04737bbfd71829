// Package models defines the domain types exchanged with the link-monitoring backend.
//
// # Server-owned collections
//
//   - [Link] : an affiliate link and its liveness [LinkStatus]
//   - [Alert] : a notification about a link, with a read flag the client flips optimistically
//   - [AlertSettings] : notification preferences, always replaced as a whole
//
// # Session
//
//   - [User] : the authenticated profile snapshot
//   - [ProfileUpdate] : a partial profile edit merged locally with [User.Merge]
//
// # Bulk ingestion
//
// [BulkUploadResult] is ephemeral. It is shown to the user and never merged into the link collection; rows that
// succeeded are picked up by reloading links from the server.
//
// # Analytics
//
// [DashboardStats], [LinkStats], [RevenueImpact] and [BrokenLinksHistory] are read-only views computed by the backend.
package models
