// Package store defines the persistence contract for tasks. The interfaces here
// keep the admission policy and request handlers independent of the SQL
// dialect that backs them; implementations live under internal/platform.
package store
