package cfbd

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestFileCacheGamesRoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	games := []Game{
		{
			ID: 401, Season: 2023, SeasonType: "postseason", Week: 1,
			StartDate: "2024-01-01T21:00:00.000Z", NeutralSite: true, Completed: true,
			HomeTeam: "Georgia", HomeConference: "SEC", HomePoints: intPtr(63),
			AwayTeam: "Florida State", AwayConference: "ACC", AwayPoints: intPtr(3),
			Notes: "Orange Bowl",
		},
		{
			ID: 402, Season: 2023, SeasonType: "postseason",
			HomeTeam: "Michigan", HomeConference: "Big Ten",
			AwayTeam: "Alabama", AwayConference: "SEC",
		},
	}
	require.NoError(t, cache.SaveGames(games))

	loaded, err := cache.LoadGames()
	require.NoError(t, err)
	assert.Equal(t, games, loaded)
}

func TestFileCacheLinesRoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	lines := []GameLines{
		{
			ID: 401, Season: 2023, SeasonType: "postseason",
			HomeTeam: "Georgia", AwayTeam: "Florida State",
			Lines: []Line{
				{Provider: "consensus", Spread: decPtr("-13.5"), OverUnder: decPtr("56.5"),
					HomeMoneyline: intPtr(-550), AwayMoneyline: intPtr(400),
					FormattedSpread: "Georgia -13.5"},
				{Provider: "DraftKings", Spread: decPtr("-14")},
			},
		},
		{
			ID: 402, Season: 2023, SeasonType: "postseason",
			HomeTeam: "Michigan", AwayTeam: "Alabama",
			Lines: []Line{{Provider: "consensus"}},
		},
	}
	require.NoError(t, cache.SaveLines(lines))

	loaded, err := cache.LoadLines()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	// provider rows regroup under their game
	require.Len(t, loaded[0].Lines, 2)
	assert.Equal(t, "DraftKings", loaded[0].Lines[1].Provider)
	assert.True(t, loaded[0].Lines[0].Spread.Equal(decimal.RequireFromString("-13.5")))
	assert.Nil(t, loaded[1].Lines[0].Spread)

	spread, ok := loaded[0].ClosingSpread()
	require.True(t, ok)
	assert.Equal(t, "-13.5", spread.String())
}

func TestFileCacheBowlDataRoundTrip(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	data := &BowlData{
		Games: []Game{{ID: 1, Season: 2022, HomeTeam: "A", AwayTeam: "B"}},
		TeamStats: []TeamSeasonStat{
			{Season: 2022, Team: "A", Conference: "SEC", StatName: "totalYards", StatValue: 5123},
		},
		SPRatings: []SPRating{
			{Year: 2022, Team: "A", Conference: "SEC", Rating: 27.3, Ranking: intPtr(1),
				Offense: UnitRating{Rating: 40.1}, Defense: UnitRating{Rating: 12.8}},
		},
		Records: []TeamRecord{
			{Year: 2022, Team: "A", Conference: "SEC", ExpectedWins: 11.2,
				Total: RecordTotals{Games: 14, Wins: 13, Losses: 1}},
		},
	}
	require.NoError(t, cache.SaveBowlData(data))

	loaded, err := cache.LoadBowlData()
	require.NoError(t, err)
	assert.Equal(t, data.Games, loaded.Games)
	assert.Equal(t, data.TeamStats, loaded.TeamStats)
	assert.Equal(t, data.SPRatings, loaded.SPRatings)
	assert.Equal(t, data.Records, loaded.Records)
	// no lines were saved, loading should leave them empty
	assert.Empty(t, loaded.Lines)
}

func TestFileCacheMiss(t *testing.T) {
	cache, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	_, err = cache.LoadGames()
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewFileCacheCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "raw")
	cache, err := NewFileCache(dir)
	require.NoError(t, err)
	assert.DirExists(t, cache.Dir())
}
