// Package domain holds the persisted data model for the attendance
// administration backend: the organizational hierarchy (season-scoped
// departments, groups and teams encoded in organization names), member role
// assignments, the raw attendance event log, and the per-(member, activity)
// streak aggregate maintained incrementally as events arrive.
package domain
