// Package ratelimit throttles requests to the Telegram gateway.
//
// TokenBucket wraps golang.org/x/time/rate and adds a shared pause window
// so that a FLOOD_WAIT reported on one call holds back every later call.
package ratelimit
