package sentiment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TradeWolf/internal/domain/models"
	"TradeWolf/pkg/logger"
)

func newTestService(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.Second, logger.Nop())
}

func TestGetSentimentLabels(t *testing.T) {
	cases := []struct {
		body string
		want models.Sentiment
	}{
		{`{"sentiment":"bullish","score":0.8}`, models.SentimentBullish},
		{`{"sentiment":"bearish","score":-0.6}`, models.SentimentBearish},
		{`{"sentiment":"neutral","score":0.0}`, models.SentimentNeutral},
		{`{"sentiment":"confused","score":0.1}`, models.SentimentNeutral},
	}
	for _, tc := range cases {
		c := newTestService(t, tc.body)
		got, err := c.GetSentiment(context.Background())
		if err != nil {
			t.Fatalf("GetSentiment(%s): %v", tc.body, err)
		}
		if got != tc.want {
			t.Errorf("GetSentiment(%s) = %s, want %s", tc.body, got, tc.want)
		}
	}
}

func TestGetSentimentUnconfiguredIsNeutral(t *testing.T) {
	c := NewClient("", time.Second, logger.Nop())
	got, err := c.GetSentiment(context.Background())
	if err != nil || got != models.SentimentNeutral {
		t.Fatalf("GetSentiment() = (%s, %v), want neutral without error", got, err)
	}
}

func TestGetSentimentTransportErrorReturnsNeutral(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 200*time.Millisecond, logger.Nop())
	got, err := c.GetSentiment(context.Background())
	if err == nil {
		t.Fatal("transport failure should surface an error")
	}
	if got != models.SentimentNeutral {
		t.Fatalf("degraded value = %s, want neutral", got)
	}
}
