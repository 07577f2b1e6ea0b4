package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
)

// envelope is the story API response wrapper.
type envelope struct {
	Error       bool            `json:"error"`
	Message     string          `json:"message"`
	Offline     bool            `json:"offline"`
	ListStory   []models.Story  `json:"listStory"`
	Story       *models.Story   `json:"story"`
	LoginResult *models.Session `json:"loginResult"`
}

const maxBody = 32 << 20

// decodeResponse maps resp to an envelope or an error. The body is always
// consumed and closed. With strict unset, a 2xx body that is not JSON still
// counts as success and yields an empty envelope.
func decodeResponse(resp *http.Response, strict bool) (*envelope, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", common.ErrNetwork, err)
	}

	var env envelope
	if len(body) > 0 {
		if jerr := json.Unmarshal(body, &env); jerr != nil && strict && resp.StatusCode < 300 {
			return nil, fmt.Errorf("decode response: %w", jerr)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &common.HTTPError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if env.Offline {
		return nil, common.ErrOffline
	}
	return &env, nil
}

// mapTransportError wraps a failed round trip. Context errors are kept
// reachable so callers can tell cancellation apart.
func mapTransportError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", common.ErrNetwork, err)
}
