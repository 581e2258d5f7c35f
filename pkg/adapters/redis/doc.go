// Package redis provides a Redis-backed record sink and a run locker.
package redis
