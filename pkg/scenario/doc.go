/*
Package scenario composes sequences into one concurrently running scenario.

A Driver raises a keep-alive Objection, lets the environment settle, spawns
every sequence as its own task, waits for all of them (not the first one) and
settles again before releasing the objection. Any task failure fails the whole
scenario with ErrScenarioFailed; there is no partial recovery and no retry.
*/
package scenario
