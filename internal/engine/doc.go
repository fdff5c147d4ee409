// Package engine aggregates derived actions across the active fleet and is
// the single externally-facing mutation entry point. Dashboards read
// DailyPriorities and NextActions; manual operator overrides go through
// AdvanceStage, which delegates to the status manager.
package engine
