// Package featuregate resolves the investigation store's effective
// enabled/disabled state from two overlapping signals: the persisted
// configuration flag and a runtime environment override. The override, when
// present, always wins; it is the operator's escape hatch.
//
// Resolution is a pure function evaluated against cached inputs so a single
// request never observes divergent gate states mid-flight. Callers update the
// cached inputs explicitly (config reload, override re-read) rather than the
// gate polling on every check.
package featuregate
