// Package domain contains the core business entities and rules of the task
// tracker: the Task record, the open-task ceiling, and the batch bounds that
// admission enforces. It is independent of any storage or delivery mechanism.
package domain
