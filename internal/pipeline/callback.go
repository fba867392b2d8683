package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/sergiomvj/faceblog-provisioner/internal/model"
)

// Notifier delivers the completion webhook for jobs that registered a
// callback URL. Delivery is best-effort: 5xx and network errors are retried
// with backoff, 4xx is not, and terminal failure only logs.
type Notifier struct {
	client    *http.Client
	retryBase time.Duration
	logger    zerolog.Logger
}

func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{
		client:    &http.Client{Timeout: 30 * time.Second},
		retryBase: 2 * time.Second,
		logger:    logger.With().Str("component", "callback").Logger(),
	}
}

func (n *Notifier) Notify(ctx context.Context, url string, payload model.CallbackPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error().Err(err).Msg("marshal callback payload")
		return
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(n.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("callback returned %d", resp.StatusCode))
		default:
			return fmt.Errorf("callback returned %d", resp.StatusCode)
		}
	})
	if err != nil {
		n.logger.Warn().Err(err).Str("url", url).Str("job_id", payload.JobID).Msg("callback delivery failed")
		return
	}
	n.logger.Debug().Str("url", url).Str("job_id", payload.JobID).Msg("callback delivered")
}
