package remote

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	errs "tgbulkdl/pkg/errors"
)

// Authenticator supplies the interactive parts of a sign-in
type Authenticator interface {
	Phone(ctx context.Context) (string, error)
	Code(ctx context.Context) (string, error)
	Password(ctx context.Context) (string, error)
}

// Authorized reports whether the current session is signed in
func (c *GatewayClient) Authorized(ctx context.Context) (bool, error) {
	if c.Session() == "" {
		return false, nil
	}

	var out authStatusResponse
	err := c.doJSON(ctx, http.MethodGet, c.baseURL+authStatusPath, nil, &out)
	if errs.Is(err, errs.ErrorTypeAuth) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("auth status: %w", err)
	}
	return out.Authorized, nil
}

// Authorize signs in when the session is not yet authorized and returns
// the session token to persist. An already authorized session is
// returned unchanged without prompting.
func (c *GatewayClient) Authorize(ctx context.Context, auth Authenticator) (string, error) {
	ok, err := c.Authorized(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return c.Session(), nil
	}

	phone, err := auth.Phone(ctx)
	if err != nil {
		return "", err
	}
	phone = strings.TrimSpace(phone)

	var sent sendCodeResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+sendCodePath, sendCodeRequest{Phone: phone}, &sent); err != nil {
		return "", fmt.Errorf("send code: %w", err)
	}

	code, err := auth.Code(ctx)
	if err != nil {
		return "", err
	}

	var signed sessionResponse
	err = c.doJSON(ctx, http.MethodPost, c.baseURL+signInPath, signInRequest{
		Phone:         phone,
		PhoneCodeHash: sent.PhoneCodeHash,
		Code:          strings.TrimSpace(code),
	}, &signed)

	if errs.Is(err, errs.ErrorTypePasswordNeeded) {
		c.logger.Info("Two-step verification enabled, asking for password")

		password, perr := auth.Password(ctx)
		if perr != nil {
			return "", perr
		}
		err = c.doJSON(ctx, http.MethodPost, c.baseURL+checkPasswordPath, checkPasswordRequest{Phone: phone, Password: password}, &signed)
		if err != nil {
			return "", fmt.Errorf("check password: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}

	if signed.Session == "" {
		return "", errs.New(errs.ErrorTypeAuth, 0, "gateway returned an empty session")
	}
	c.SetSession(signed.Session)
	c.logger.Info("Signed in")
	return signed.Session, nil
}
