package gemini

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/posterops/poster-translator/internal/codec"
	"github.com/posterops/poster-translator/internal/common"
	"github.com/posterops/poster-translator/internal/translate"
)

// maxBodyDump caps how much of a reply body ends up in error messages.
const maxBodyDump = 800

// TranslateImage implements translate.ImageTranslator against the
// generateContent endpoint. One call per image, no retry; a failed attempt is
// terminal for that image.
func (c *Client) TranslateImage(ctx context.Context, req translate.Request) (*translate.Result, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("gemini.translate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mime_type", req.Image.MIMEType,
		"payload_len", len(req.Image.Base64),
	)

	body := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": req.Instruction},
					{"inline_data": map[string]any{
						"mime_type": req.Image.MIMEType,
						"data":      req.Image.Base64,
					}},
				},
			},
		},
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}
	headers := map[string]string{"x-goog-api-key": apiKey}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + c.cfg.Model + ":generateContent"

	raw, status, httpErr := translate.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if httpErr != nil {
		c.log.Error("gemini.translate.http_error",
			"req_id", rid, "status", status, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if status != 0 {
			return nil, common.NewAppError("GEMINI_STATUS", errorDetail(status, raw), common.ErrService)
		}
		return nil, common.NewAppError("GEMINI_SEND", httpErr.Error(), common.ErrService)
	}

	tree, err := parseTree(raw)
	if err != nil {
		c.log.Error("gemini.translate.parse_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("GEMINI_PARSE", "unparseable response body: "+truncate(string(raw), maxBodyDump), common.ErrService)
	}

	mimeType, b64, found := findInlineImage(tree)
	if !found {
		c.log.Error("gemini.translate.no_image",
			"req_id", rid, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("GEMINI_NO_IMAGE", "no image data found in response: "+truncate(string(raw), maxBodyDump), common.ErrService)
	}

	out, err := codec.DecodeImage(b64)
	if err != nil {
		c.log.Error("gemini.translate.decode_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.log.Info("gemini.translate.ok",
		"req_id", rid,
		"out_mime", mimeType,
		"out_bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &translate.Result{Bytes: out, MIMEType: mimeType}, nil
}

// errorDetail renders a non-2xx reply for operators: structured when the body
// parses as JSON, raw text otherwise, always truncated.
func errorDetail(status int, raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		if b, err := json.Marshal(v); err == nil {
			raw = b
		}
	}
	return "status " + strconv.Itoa(status) + ": " + truncate(string(raw), maxBodyDump)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
