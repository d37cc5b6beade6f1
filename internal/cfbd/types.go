package cfbd

import "github.com/shopspring/decimal"

// Game represents a single game from the CFBD games endpoint.
type Game struct {
	ID             int64  `json:"id"`
	Season         int    `json:"season"`
	SeasonType     string `json:"seasonType"`
	Week           int    `json:"week"`
	StartDate      string `json:"startDate"`
	NeutralSite    bool   `json:"neutralSite"`
	Completed      bool   `json:"completed"`
	HomeTeam       string `json:"homeTeam"`
	HomeConference string `json:"homeConference"`
	HomePoints     *int   `json:"homePoints"`
	AwayTeam       string `json:"awayTeam"`
	AwayConference string `json:"awayConference"`
	AwayPoints     *int   `json:"awayPoints"`
	Notes          string `json:"notes"`
}

// Margin returns the home-minus-away point margin. The second return is
// false for games without a final score.
func (g Game) Margin() (float64, bool) {
	if g.HomePoints == nil || g.AwayPoints == nil {
		return 0, false
	}
	return float64(*g.HomePoints - *g.AwayPoints), true
}

// TeamSeasonStat is one statName/statValue pair from the season stats
// endpoint. The endpoint returns the full set of stats as separate rows.
type TeamSeasonStat struct {
	Season     int     `json:"season"`
	Team       string  `json:"team"`
	Conference string  `json:"conference"`
	StatName   string  `json:"statName"`
	StatValue  float64 `json:"statValue"`
}

// UnitRating holds one side of an SP+ rating breakdown.
type UnitRating struct {
	Rating float64 `json:"rating"`
}

// SPRating is a team's SP+ rating for a season.
type SPRating struct {
	Year       int        `json:"year"`
	Team       string     `json:"team"`
	Conference string     `json:"conference"`
	Rating     float64    `json:"rating"`
	Ranking    *int       `json:"ranking"`
	Offense    UnitRating `json:"offense"`
	Defense    UnitRating `json:"defense"`
}

// Line is a single sportsbook's line for a game. Monetary and spread
// fields stay decimal so half-point lines survive round trips exactly.
type Line struct {
	Provider        string           `json:"provider"`
	Spread          *decimal.Decimal `json:"spread"`
	SpreadOpen      *decimal.Decimal `json:"spreadOpen"`
	OverUnder       *decimal.Decimal `json:"overUnder"`
	OverUnderOpen   *decimal.Decimal `json:"overUnderOpen"`
	HomeMoneyline   *int             `json:"homeMoneyline"`
	AwayMoneyline   *int             `json:"awayMoneyline"`
	FormattedSpread string           `json:"formattedSpread"`
}

// GameLines groups all sportsbook lines for one game.
type GameLines struct {
	ID         int64  `json:"id"`
	Season     int    `json:"season"`
	SeasonType string `json:"seasonType"`
	Week       int    `json:"week"`
	HomeTeam   string `json:"homeTeam"`
	HomeScore  *int   `json:"homeScore"`
	AwayTeam   string `json:"awayTeam"`
	AwayScore  *int   `json:"awayScore"`
	Lines      []Line `json:"lines"`
}

// ClosingSpread returns the consensus closing spread for the game,
// preferring the first provider that quotes one. The spread is quoted
// from the home team's perspective (negative when home is favored).
func (g GameLines) ClosingSpread() (decimal.Decimal, bool) {
	for _, line := range g.Lines {
		if line.Spread != nil {
			return *line.Spread, true
		}
	}
	return decimal.Decimal{}, false
}

// RecordTotals holds a win/loss breakdown from the records endpoint.
type RecordTotals struct {
	Games  int `json:"games"`
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// TeamRecord is a team's season record.
type TeamRecord struct {
	Year          int          `json:"year"`
	Team          string       `json:"team"`
	Conference    string       `json:"conference"`
	ExpectedWins  float64      `json:"expectedWins"`
	Total         RecordTotals `json:"total"`
	ConferenceRec RecordTotals `json:"conferenceGames"`
}

// BowlData aggregates everything the feature builder needs for a set of
// seasons.
type BowlData struct {
	Games     []Game           `json:"games"`
	TeamStats []TeamSeasonStat `json:"team_stats"`
	SPRatings []SPRating       `json:"sp_ratings"`
	Lines     []GameLines      `json:"betting_lines"`
	Records   []TeamRecord     `json:"records"`
}
