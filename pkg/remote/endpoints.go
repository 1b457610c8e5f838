package remote

import (
	"fmt"
	"net/url"
	"strconv"
)

const (
	// DefaultBaseURL is where a locally running gateway listens
	DefaultBaseURL = "http://127.0.0.1:8081"

	// MaxSearchLimit is the largest page the gateway returns
	MaxSearchLimit = 100

	sendCodePath      = "/v1/auth/send-code"
	signInPath        = "/v1/auth/sign-in"
	checkPasswordPath = "/v1/auth/check-password"
	authStatusPath    = "/v1/auth/status"
	resolvePath       = "/v1/resolve"
	disconnectPath    = "/v1/disconnect"
)

// resolveURL builds the entity resolution URL
func resolveURL(base, identifier string) string {
	params := url.Values{}
	params.Set("q", identifier)
	return fmt.Sprintf("%s%s?%s", base, resolvePath, params.Encode())
}

// peerParams identifies a peer to the gateway without another resolve
func peerParams(kind string, accessHash int64) url.Values {
	params := url.Values{}
	if kind != "" {
		params.Set("kind", kind)
	}
	if accessHash != 0 {
		params.Set("access_hash", strconv.FormatInt(accessHash, 10))
	}
	return params
}

func forumURL(base string, peerID int64, params url.Values) string {
	return withQuery(fmt.Sprintf("%s/v1/peers/%d/forum", base, peerID), params)
}

func topicURL(base string, peerID int64, topicID int, params url.Values) string {
	return withQuery(fmt.Sprintf("%s/v1/peers/%d/topics/%d", base, peerID, topicID), params)
}

// searchURL builds the paged search URL. limit is clamped to MaxSearchLimit.
func searchURL(base string, req SearchRequest) string {
	limit := req.Limit
	if limit <= 0 || limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	params := peerParams(string(req.Peer.Kind), req.Peer.AccessHash)
	params.Set("filter", string(req.Filter))
	params.Set("offset_id", strconv.Itoa(req.OffsetID))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("order", "asc")
	if req.TopicID != nil {
		params.Set("top_msg_id", strconv.Itoa(*req.TopicID))
	}

	return withQuery(fmt.Sprintf("%s/v1/peers/%d/search", base, req.Peer.ID), params)
}

func mediaURL(base string, peerID int64, messageID int, params url.Values) string {
	return withQuery(fmt.Sprintf("%s/v1/peers/%d/messages/%d/media", base, peerID, messageID), params)
}

func withQuery(u string, params url.Values) string {
	if len(params) == 0 {
		return u
	}
	return u + "?" + params.Encode()
}
