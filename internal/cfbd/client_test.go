package cfbd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macks26/capital-one-bowl-mania/internal/metrics"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(ClientOptions{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		HTTP: HTTPClientConfig{
			Timeout:           5 * time.Second,
			MaxRetries:        1,
			RetryWaitMin:      time.Millisecond,
			RetryWaitMax:      5 * time.Millisecond,
			RateLimit:         1000,
			CircuitBreakerMax: 5,
		},
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGames(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "2023", r.URL.Query().Get("year"))
		assert.Equal(t, "postseason", r.URL.Query().Get("seasonType"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 401, "season": 2023, "seasonType": "postseason", "week": 1,
			 "neutralSite": true, "completed": true,
			 "homeTeam": "Georgia", "homeConference": "SEC", "homePoints": 63,
			 "awayTeam": "Florida State", "awayConference": "ACC", "awayPoints": 3,
			 "notes": "Orange Bowl"},
			{"id": 402, "season": 2023, "seasonType": "postseason", "week": 1,
			 "homeTeam": "Michigan", "homeConference": "Big Ten",
			 "awayTeam": "Alabama", "awayConference": "SEC"}
		]`))
	})

	client := testClient(t, handler)
	games, err := client.Games(context.Background(), 2023, SeasonPostseason)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, int64(401), games[0].ID)
	assert.Equal(t, "Georgia", games[0].HomeTeam)
	margin, ok := games[0].Margin()
	assert.True(t, ok)
	assert.Equal(t, 60.0, margin)

	// second game has no score yet
	_, ok = games[1].Margin()
	assert.False(t, ok)
}

func TestGetObservesFetchDuration(t *testing.T) {
	metrics.InitRegistry()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	client := testClient(t, handler)
	_, err := client.Records(context.Background(), 2023)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `bowl_mania_fetch_duration_seconds_count{endpoint="records"}`)
}

func TestLinesDecimalFields(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 401, "season": 2023, "seasonType": "postseason",
			 "homeTeam": "Georgia", "awayTeam": "Florida State",
			 "lines": [
				{"provider": "consensus", "spread": -13.5, "overUnder": 56.5,
				 "homeMoneyline": -550, "awayMoneyline": 400,
				 "formattedSpread": "Georgia -13.5"},
				{"provider": "DraftKings", "spread": -14}
			 ]}
		]`))
	})

	client := testClient(t, handler)
	lines, err := client.Lines(context.Background(), 2023, SeasonPostseason)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Len(t, lines[0].Lines, 2)

	spread, ok := lines[0].ClosingSpread()
	require.True(t, ok)
	assert.True(t, spread.Equal(decimal.RequireFromString("-13.5")))
	assert.Equal(t, -550, *lines[0].Lines[0].HomeMoneyline)
}

func TestMemoryCacheAvoidsRefetch(t *testing.T) {
	var hits atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[{"year": 2023, "team": "Georgia", "conference": "SEC", "rating": 27.3}]`))
	})

	client := testClient(t, handler)
	ctx := context.Background()

	first, err := client.SPRatings(ctx, 2023)
	require.NoError(t, err)
	second, err := client.SPRatings(ctx, 2023)
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, first, second)

	// a different year is a different cache key
	_, err = client.SPRatings(ctx, 2022)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestAPIErrorStatuses(t *testing.T) {
	tests := map[string]struct {
		status   int
		wantCode string
	}{
		"unauthorized": {status: http.StatusUnauthorized, wantCode: ErrCodeAuthenticationFailed},
		"not found":    {status: http.StatusNotFound, wantCode: ErrCodeNotFound},
		"bad request":  {status: http.StatusBadRequest, wantCode: ErrCodeServerError},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			_, err := client.Records(context.Background(), 2023)
			require.Error(t, err)

			var apiErr APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, "records", apiErr.Endpoint)
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))

	_, err := client.TeamStats(context.Background(), 2023)
	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrCodeInvalidData, apiErr.Code)
}

func TestFetchBowlDataAggregates(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/games":
			w.Write([]byte(`[{"id": 1, "season": 2022, "homeTeam": "A", "awayTeam": "B"}]`))
		case "/ratings/sp":
			w.Write([]byte(`[{"year": 2022, "team": "A", "rating": 10.0}]`))
		case "/lines":
			// lines endpoint is down, the aggregate should still succeed
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`[]`))
		}
	})

	client := testClient(t, handler)
	data, err := client.FetchBowlData(context.Background(), []int{2022, 2023})
	require.NoError(t, err)

	assert.Len(t, data.Games, 2)
	assert.Len(t, data.SPRatings, 2)
	assert.Empty(t, data.Lines)
}

func TestFetchBowlDataGamesFailureIsFatal(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.FetchBowlData(context.Background(), []int{2023})
	require.Error(t, err)
	var apiErr APIError
	assert.ErrorAs(t, err, &apiErr)
}
