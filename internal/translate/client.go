// Package translate wraps the external translation service. The service
// owns the actual model; this side owns timeouts, the degrade-to-original
// policy and the pronunciation fallback.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
)

// ErrUnavailable covers every failure mode of the external call: transport
// error, timeout, non-2xx, undecodable body. Callers fall back to the
// original text, they never surface this to the end user.
var ErrUnavailable = errors.New("translation unavailable")

const DefaultTimeout = 3 * time.Second

// Request is the wire contract of the translation service.
type Request struct {
	InputText string `json:"input_text"`
	Dest      string `json:"dest"`
}

type Response struct {
	TranslatedText   string `json:"translated_text"`
	Pronunciation    string `json:"pronunciation,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`
}

// Client is stateless per call aside from the pooled http transport.
type Client struct {
	url string
	hc  *http.Client
}

var _ core.Translator = (*Client)(nil)

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, hc: &http.Client{Timeout: timeout}}
}

// Translate localizes text into dest. When local detection says the text
// already is in dest the remote call is skipped entirely.
func (c *Client) Translate(ctx context.Context, text string, dest domain.Language) (core.Translation, error) {
	if detected := Detect(text); detected != "" && detected == primaryTag(dest) {
		return core.Translation{Text: text, Pronunciation: Transliterate(text), Detected: detected}, nil
	}

	body, err := json.Marshal(Request{InputText: text, Dest: string(dest)})
	if err != nil {
		return core.Translation{}, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return core.Translation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return core.Translation{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Str("module", "translate").Int("status", resp.StatusCode).Msg("translation service non-success")
		return core.Translation{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.Translation{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	translated := out.TranslatedText
	if translated == "" {
		translated = text
	}
	pron := out.Pronunciation
	if pron == "" {
		pron = Transliterate(translated)
	}
	return core.Translation{
		Text:          translated,
		Pronunciation: pron,
		Detected:      domain.Language(out.DetectedLanguage),
	}, nil
}

// Detect returns the iso639-1 tag of text, or "" when detection is not
// confident enough to act on.
func Detect(text string) domain.Language {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	tag := info.Lang.Iso6391()
	if tag == "" {
		return ""
	}
	return domain.Language(tag)
}

// primaryTag reduces "pt-br" to "pt" for comparison against detection.
func primaryTag(lang domain.Language) domain.Language {
	if i := strings.IndexByte(string(lang), '-'); i > 0 {
		return lang[:i]
	}
	return lang
}
