package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/chatwidget/internal/errors"
	"github.com/diogo/chatwidget/internal/models"
)

// maxErrorBody bounds how much of a failed response is kept for diagnostics
const maxErrorBody = 4096

// SendMessage posts text to the chat endpoint and returns the reply field.
// A successful response without a reply yields "" and a nil error; callers
// substitute the fallback text.
func (c *Client) SendMessage(ctx context.Context, text string) (string, error) {
	endpoint := c.endpoint.String()

	payload, err := json.Marshal(models.ChatRequest{Message: text})
	if err != nil {
		return "", apierrors.NewParseError("encode chat request: "+err.Error(), "message")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("create chat request", endpoint, err)
	}
	req = req.WithContext(ctx)

	token := c.CSRFToken()
	req.Header.Set("Content-Type", models.ContentTypeJSON)
	req.Header.Set("Accept", models.ContentTypeJSON)
	req.Header.Set(c.csrfHeader, token)
	req.Header.Set("Referer", c.baseURL.String())
	c.attachCookies(req)

	c.logger.Debug("sending chat message", "endpoint", endpoint, "length", len(text), "csrf", token != "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("send message", endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	c.storeCookies(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", apierrors.NewAPIErrorWithBody(resp.StatusCode, endpoint, "chat request failed", string(errorBody))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierrors.NewNetworkErrorWithEndpoint("read chat response", endpoint, err)
	}

	reply, err := parseReply(body)
	if err != nil {
		return "", err
	}

	c.logger.Debug("chat reply received", "status", resp.StatusCode, "length", len(reply))
	return reply, nil
}

// parseReply extracts the reply field from a chat response body
func parseReply(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return "", apierrors.NewParseError("response is not a JSON object", "")
	}

	reply := parsed.Get("reply")
	switch reply.Type {
	case gjson.Null, gjson.False:
		// Missing, null and false count as no reply, as do 0 and ""
		return "", nil
	case gjson.String:
		return reply.String(), nil
	case gjson.Number:
		if reply.Float() == 0 {
			return "", nil
		}
		return reply.Raw, nil
	case gjson.True:
		return strconv.FormatBool(true), nil
	default:
		return "", apierrors.NewParseError("reply is not a string", "reply")
	}
}

// Prime fetches the page at the base URL so the server can issue its
// session and anti-forgery cookies. It is optional: a seeded cookie jar
// works without it.
func (c *Client) Prime(ctx context.Context) error {
	page := c.baseURL.String()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, page, nil)
	if err != nil {
		return apierrors.NewNetworkErrorWithEndpoint("create page request", page, err)
	}
	req = req.WithContext(ctx)
	c.attachCookies(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierrors.NewNetworkErrorWithEndpoint("fetch chat page", page, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		return apierrors.NewAPIError(resp.StatusCode, page, "fetch chat page failed")
	}

	c.storeCookies(resp)
	c.logger.Debug("chat page fetched", "status", resp.StatusCode, "csrf", c.CSRFToken() != "")
	return nil
}

// attachCookies adds jar cookies to requests sent through an injected
// transport; the TLS client built by NewClient reads the jar itself
func (c *Client) attachCookies(req *http.Request) {
	if !c.externalHTTP {
		return
	}
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
}

// storeCookies records Set-Cookie headers from responses of an injected
// transport
func (c *Client) storeCookies(resp *http.Response) {
	if !c.externalHTTP || resp == nil {
		return
	}
	if cookies := resp.Cookies(); len(cookies) > 0 {
		c.jar.SetCookies(c.baseURL, cookies)
	}
}
