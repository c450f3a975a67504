package sentiment

import (
	"context"
	"fmt"
	"time"

	"TradeWolf/internal/domain/models"
	apphttp "TradeWolf/pkg/http"
	"TradeWolf/pkg/logger"
)

// Client polls an external market-sentiment service. The loop treats the
// signal as advisory: any failure degrades to neutral at the call site.
type Client struct {
	http       *apphttp.Client
	serviceURL string
	log        *logger.Logger
}

func NewClient(serviceURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		http:       apphttp.NewClient(apphttp.WithTimeout(timeout)),
		serviceURL: serviceURL,
		log:        log,
	}
}

type sentimentPayload struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

// GetSentiment fetches the current market sentiment. Unknown labels map to
// neutral rather than an error; transport failures are returned for the
// caller to degrade.
func (c *Client) GetSentiment(ctx context.Context) (models.Sentiment, error) {
	if c.serviceURL == "" {
		return models.SentimentNeutral, nil
	}

	var payload sentimentPayload
	if err := c.http.Get(ctx, c.serviceURL, nil, nil, &payload); err != nil {
		return models.SentimentNeutral, fmt.Errorf("fetch sentiment: %w", err)
	}

	switch models.Sentiment(payload.Sentiment) {
	case models.SentimentBullish, models.SentimentBearish, models.SentimentNeutral:
		return models.Sentiment(payload.Sentiment), nil
	default:
		c.log.Debug("unknown sentiment label, assuming neutral",
			logger.String("label", payload.Sentiment))
		return models.SentimentNeutral, nil
	}
}
