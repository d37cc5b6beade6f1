// Package features turns cached CFBD records into the model-ready
// feature table: one row per completed bowl game, SP+ differentials as
// features, home-minus-away margin as the target, and the home
// conference as the hierarchical group.
package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/macks26/capital-one-bowl-mania/internal/cfbd"
	"github.com/macks26/capital-one-bowl-mania/internal/dataset"
)

// Feature column names, in table order.
const (
	ColRatingDiff  = "rating_diff"
	ColOffenseDiff = "offense_diff"
	ColDefenseDiff = "defense_diff"
	ColWinPctDiff  = "win_pct_diff"
)

// ErrNoUsableGames is returned when no completed game has ratings for
// both teams.
var ErrNoUsableGames = errors.New("no usable games")

// Set is a model-ready view of the bowl data. All slices are aligned
// row-for-row with X. Spreads holds the closing line from the home
// team's perspective, NaN when no sportsbook quoted one.
type Set struct {
	X       *dataset.Table
	Y       []float64
	Spreads []float64
	Groups  []string

	GameIDs   []int64
	HomeTeams []string
	AwayTeams []string
}

type ratingKey struct {
	year int
	team string
}

// Build assembles a feature set from fetched bowl data. Games that are
// not completed, lack a final score, or lack an SP+ rating for either
// team are skipped.
func Build(data *cfbd.BowlData, logger *logrus.Logger) (*Set, error) {
	if logger == nil {
		logger = logrus.New()
	}

	ratings := make(map[ratingKey]cfbd.SPRating, len(data.SPRatings))
	for _, r := range data.SPRatings {
		ratings[ratingKey{r.Year, r.Team}] = r
	}
	records := make(map[ratingKey]cfbd.TeamRecord, len(data.Records))
	for _, r := range data.Records {
		records[ratingKey{r.Year, r.Team}] = r
	}
	spreads := make(map[int64]float64, len(data.Lines))
	for _, gl := range data.Lines {
		if spread, ok := gl.ClosingSpread(); ok {
			spreads[gl.ID], _ = spread.Float64()
		}
	}

	x, err := dataset.FromRows([]string{ColRatingDiff, ColOffenseDiff, ColDefenseDiff, ColWinPctDiff}, nil)
	if err != nil {
		return nil, err
	}
	set := &Set{X: x}

	skipped := 0
	for _, g := range data.Games {
		margin, ok := g.Margin()
		if !ok || !g.Completed {
			skipped++
			continue
		}
		home, homeOK := ratings[ratingKey{g.Season, g.HomeTeam}]
		away, awayOK := ratings[ratingKey{g.Season, g.AwayTeam}]
		if !homeOK || !awayOK {
			skipped++
			continue
		}

		row := []float64{
			home.Rating - away.Rating,
			home.Offense.Rating - away.Offense.Rating,
			home.Defense.Rating - away.Defense.Rating,
			winPct(records, g.Season, g.HomeTeam) - winPct(records, g.Season, g.AwayTeam),
		}
		if err := set.X.AppendRow(row); err != nil {
			return nil, fmt.Errorf("appending feature row for game %d: %w", g.ID, err)
		}

		set.Y = append(set.Y, margin)
		if spread, ok := spreads[g.ID]; ok {
			set.Spreads = append(set.Spreads, spread)
		} else {
			set.Spreads = append(set.Spreads, math.NaN())
		}
		set.Groups = append(set.Groups, conferenceGroup(g))
		set.GameIDs = append(set.GameIDs, g.ID)
		set.HomeTeams = append(set.HomeTeams, g.HomeTeam)
		set.AwayTeams = append(set.AwayTeams, g.AwayTeam)
	}

	if set.X.NumRows() == 0 {
		return nil, fmt.Errorf("%w (%d games skipped)", ErrNoUsableGames, skipped)
	}
	if skipped > 0 {
		logger.WithFields(logrus.Fields{
			"usable":  set.X.NumRows(),
			"skipped": skipped,
		}).Info("Built feature set")
	}
	return set, nil
}

// WithSpreads returns the subset of rows that have a closing spread,
// for cover-probability backtests.
func (s *Set) WithSpreads() *Set {
	x, _ := dataset.FromRows(s.X.Columns(), nil)
	out := &Set{X: x}
	for i := 0; i < s.X.NumRows(); i++ {
		if math.IsNaN(s.Spreads[i]) {
			continue
		}
		// rows come from an existing table, widths always match
		_ = out.X.AppendRow(s.X.Row(i))
		out.Y = append(out.Y, s.Y[i])
		out.Spreads = append(out.Spreads, s.Spreads[i])
		out.Groups = append(out.Groups, s.Groups[i])
		out.GameIDs = append(out.GameIDs, s.GameIDs[i])
		out.HomeTeams = append(out.HomeTeams, s.HomeTeams[i])
		out.AwayTeams = append(out.AwayTeams, s.AwayTeams[i])
	}
	return out
}

// CoverThresholds returns the margin each home side must beat to cover,
// per row. Lines quote the home handicap (negative when home is favored),
// so the threshold is the negated spread. This is the value to hand to
// PredictCoverProbability, which works in margin space.
func (s *Set) CoverThresholds() []float64 {
	out := make([]float64, len(s.Spreads))
	for i, sp := range s.Spreads {
		out[i] = -sp
	}
	return out
}

// ActualCovers reports, per row, whether the home side covered the
// closing spread: margin + spread > 0. Rows without a spread are false.
func (s *Set) ActualCovers() []bool {
	covers := make([]bool, len(s.Y))
	for i := range s.Y {
		if math.IsNaN(s.Spreads[i]) {
			continue
		}
		covers[i] = s.Y[i]+s.Spreads[i] > 0
	}
	return covers
}

func winPct(records map[ratingKey]cfbd.TeamRecord, year int, team string) float64 {
	r, ok := records[ratingKey{year, team}]
	if !ok || r.Total.Games == 0 {
		return 0.5
	}
	return float64(r.Total.Wins) / float64(r.Total.Games)
}

func conferenceGroup(g cfbd.Game) string {
	if g.HomeConference != "" {
		return g.HomeConference
	}
	return "Independent"
}
