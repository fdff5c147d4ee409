// Package scheduler drives the periodic workflow tasks. Each task has its
// own interval guarded by elapsed wall-clock time and checked on a short
// tick, so a delayed tick never permanently desynchronizes intervals. Task
// errors are logged and never crash the loop.
package scheduler
