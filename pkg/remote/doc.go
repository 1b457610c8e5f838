// Package remote talks to the Telegram MTProto gateway that performs the
// actual protocol work on behalf of tgbulkdl.
//
// The gateway exposes a small HTTP/JSON API: entity resolution, forum
// capability and topic lookups, paged media search and attachment
// download. Requests carry the API id and hash in X-Api-Id/X-Api-Hash and
// the session token as a bearer token.
//
// Failures are returned as *errors.Error values classified from the
// gateway's structured error body, so callers never match on message text:
//
//	support, err := client.TopicSupport(ctx, peer)
//	switch support {
//	case remote.SupportsTopics, remote.TopicSupportUnknown:
//	    // offer the topic prompt
//	case remote.NoTopics:
//	    // skip it
//	}
//
// Every call goes through the configured rate limiter, and transient
// failures are retried with pkg/retry. A FLOOD_WAIT reply pauses the
// limiter for the advertised duration.
package remote
