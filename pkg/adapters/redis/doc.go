// Package redis provides a Redis-backed query cache tier.
package redis
