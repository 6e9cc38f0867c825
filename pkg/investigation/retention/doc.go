// Package retention schedules sweeps of the investigation store. Retention
// filtering is lazy on the read and write paths; the scheduled sweep exists
// so an idle store still sheds expired records and releases memory.
package retention
