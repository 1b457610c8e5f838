package remote

import (
	"tgbulkdl/pkg/models"
)

// errorEnvelope is the body of every non-2xx gateway response
type errorEnvelope struct {
	Error struct {
		Type       string `json:"type"`
		Message    string `json:"message"`
		Code       int    `json:"code"`
		RetryAfter int    `json:"retry_after"`
	} `json:"error"`
}

type resolveResponse struct {
	Entity models.Entity `json:"entity"`
}

type forumResponse struct {
	Forum bool `json:"forum"`
}

type topicResponse struct {
	Topic struct {
		ID    int    `json:"id"`
		Title string `json:"title"`
	} `json:"topic"`
}

type searchResponse struct {
	Messages []models.Message `json:"messages"`
}

type authStatusResponse struct {
	Authorized bool `json:"authorized"`
}

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

type sendCodeResponse struct {
	PhoneCodeHash string `json:"phone_code_hash"`
}

type signInRequest struct {
	Phone         string `json:"phone"`
	PhoneCodeHash string `json:"phone_code_hash"`
	Code          string `json:"code"`
}

type checkPasswordRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Session string `json:"session"`
}
