// Package scheduler triggers the daily run in daemon mode.
//
// A schedule is either a cron expression (robfig/cron, optional seconds
// field, descriptors like "@daily") or a fixed interval. Jobs never overlap:
// a trigger that fires while the previous run is still going is skipped.
package scheduler
