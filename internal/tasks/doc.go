// package tasks implements multi-step operations over the link-monitoring backend.
//
// [Uploader] drives CSV bulk ingestion: a local CSV check, one multipart call, then a reload of the link store so
// created rows appear as server state. [Overview] fans out the analytics endpoints and collects per-endpoint
// failures instead of failing as a whole.
//
// Operations emit [ProgressUpdate] values on an optional channel. Sends never block; updates are dropped when
// the channel is full.
package tasks
