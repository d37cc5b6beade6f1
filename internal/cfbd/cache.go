package cfbd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// ErrCacheMiss is returned when a requested cache file does not exist.
var ErrCacheMiss = errors.New("cache miss")

// CacheTTL configures the in-memory response cache.
type CacheTTL struct {
	Expiration time.Duration
	Cleanup    time.Duration
}

// memoryCache holds raw JSON response bodies keyed by endpoint and params.
type memoryCache struct {
	store *gocache.Cache
}

func newMemoryCache(ttl CacheTTL) *memoryCache {
	if ttl.Expiration <= 0 {
		ttl.Expiration = 15 * time.Minute
	}
	if ttl.Cleanup <= 0 {
		ttl.Cleanup = 30 * time.Minute
	}
	return &memoryCache{store: gocache.New(ttl.Expiration, ttl.Cleanup)}
}

func (c *memoryCache) get(key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (c *memoryCache) set(key string, raw []byte) {
	c.store.Set(key, raw, gocache.DefaultExpiration)
}

// Cache file names, one flat CSV per record kind.
const (
	gamesFile   = "games.csv"
	statsFile   = "team_stats.csv"
	ratingsFile = "sp_ratings.csv"
	linesFile   = "betting_lines.csv"
	recordsFile = "records.csv"
)

// FileCache persists fetched records as flat CSV files under a directory,
// so training runs work offline once the data has been pulled.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (f *FileCache) Dir() string { return f.dir }

// SaveBowlData writes every non-empty record kind to its CSV file.
func (f *FileCache) SaveBowlData(data *BowlData) error {
	if len(data.Games) > 0 {
		if err := f.SaveGames(data.Games); err != nil {
			return err
		}
	}
	if len(data.TeamStats) > 0 {
		if err := f.SaveTeamStats(data.TeamStats); err != nil {
			return err
		}
	}
	if len(data.SPRatings) > 0 {
		if err := f.SaveSPRatings(data.SPRatings); err != nil {
			return err
		}
	}
	if len(data.Lines) > 0 {
		if err := f.SaveLines(data.Lines); err != nil {
			return err
		}
	}
	if len(data.Records) > 0 {
		if err := f.SaveRecords(data.Records); err != nil {
			return err
		}
	}
	return nil
}

// LoadBowlData reads whatever record kinds are present; absent files leave
// the corresponding slice empty.
func (f *FileCache) LoadBowlData() (*BowlData, error) {
	data := &BowlData{}
	var err error

	if data.Games, err = f.LoadGames(); err != nil && !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	if data.TeamStats, err = f.LoadTeamStats(); err != nil && !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	if data.SPRatings, err = f.LoadSPRatings(); err != nil && !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	if data.Lines, err = f.LoadLines(); err != nil && !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	if data.Records, err = f.LoadRecords(); err != nil && !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	return data, nil
}

// SaveGames writes games to games.csv.
func (f *FileCache) SaveGames(games []Game) error {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		rows = append(rows, []string{
			strconv.FormatInt(g.ID, 10),
			strconv.Itoa(g.Season),
			g.SeasonType,
			strconv.Itoa(g.Week),
			g.StartDate,
			strconv.FormatBool(g.NeutralSite),
			strconv.FormatBool(g.Completed),
			g.HomeTeam,
			g.HomeConference,
			formatOptInt(g.HomePoints),
			g.AwayTeam,
			g.AwayConference,
			formatOptInt(g.AwayPoints),
			g.Notes,
		})
	}
	header := []string{"id", "season", "seasonType", "week", "startDate", "neutralSite", "completed",
		"homeTeam", "homeConference", "homePoints", "awayTeam", "awayConference", "awayPoints", "notes"}
	return f.writeCSV(gamesFile, header, rows)
}

// LoadGames reads games.csv.
func (f *FileCache) LoadGames() ([]Game, error) {
	rows, err := f.readCSV(gamesFile, 14)
	if err != nil {
		return nil, err
	}
	games := make([]Game, 0, len(rows))
	for _, r := range rows {
		id, err := strconv.ParseInt(r[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad game id %q: %w", gamesFile, r[0], err)
		}
		season, week := atoiOrZero(r[1]), atoiOrZero(r[3])
		neutral, _ := strconv.ParseBool(r[5])
		completed, _ := strconv.ParseBool(r[6])
		games = append(games, Game{
			ID:             id,
			Season:         season,
			SeasonType:     r[2],
			Week:           week,
			StartDate:      r[4],
			NeutralSite:    neutral,
			Completed:      completed,
			HomeTeam:       r[7],
			HomeConference: r[8],
			HomePoints:     parseOptInt(r[9]),
			AwayTeam:       r[10],
			AwayConference: r[11],
			AwayPoints:     parseOptInt(r[12]),
			Notes:          r[13],
		})
	}
	return games, nil
}

// SaveTeamStats writes season stats to team_stats.csv.
func (f *FileCache) SaveTeamStats(stats []TeamSeasonStat) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			strconv.Itoa(s.Season),
			s.Team,
			s.Conference,
			s.StatName,
			strconv.FormatFloat(s.StatValue, 'g', -1, 64),
		})
	}
	return f.writeCSV(statsFile, []string{"season", "team", "conference", "statName", "statValue"}, rows)
}

// LoadTeamStats reads team_stats.csv.
func (f *FileCache) LoadTeamStats() ([]TeamSeasonStat, error) {
	rows, err := f.readCSV(statsFile, 5)
	if err != nil {
		return nil, err
	}
	stats := make([]TeamSeasonStat, 0, len(rows))
	for _, r := range rows {
		value, err := strconv.ParseFloat(r[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad stat value %q: %w", statsFile, r[4], err)
		}
		stats = append(stats, TeamSeasonStat{
			Season:     atoiOrZero(r[0]),
			Team:       r[1],
			Conference: r[2],
			StatName:   r[3],
			StatValue:  value,
		})
	}
	return stats, nil
}

// SaveSPRatings writes SP+ ratings to sp_ratings.csv.
func (f *FileCache) SaveSPRatings(ratings []SPRating) error {
	rows := make([][]string, 0, len(ratings))
	for _, r := range ratings {
		rows = append(rows, []string{
			strconv.Itoa(r.Year),
			r.Team,
			r.Conference,
			strconv.FormatFloat(r.Rating, 'g', -1, 64),
			formatOptInt(r.Ranking),
			strconv.FormatFloat(r.Offense.Rating, 'g', -1, 64),
			strconv.FormatFloat(r.Defense.Rating, 'g', -1, 64),
		})
	}
	header := []string{"year", "team", "conference", "rating", "ranking", "offenseRating", "defenseRating"}
	return f.writeCSV(ratingsFile, header, rows)
}

// LoadSPRatings reads sp_ratings.csv.
func (f *FileCache) LoadSPRatings() ([]SPRating, error) {
	rows, err := f.readCSV(ratingsFile, 7)
	if err != nil {
		return nil, err
	}
	ratings := make([]SPRating, 0, len(rows))
	for _, r := range rows {
		rating, err := strconv.ParseFloat(r[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad rating %q: %w", ratingsFile, r[3], err)
		}
		off, _ := strconv.ParseFloat(r[5], 64)
		def, _ := strconv.ParseFloat(r[6], 64)
		ratings = append(ratings, SPRating{
			Year:       atoiOrZero(r[0]),
			Team:       r[1],
			Conference: r[2],
			Rating:     rating,
			Ranking:    parseOptInt(r[4]),
			Offense:    UnitRating{Rating: off},
			Defense:    UnitRating{Rating: def},
		})
	}
	return ratings, nil
}

// SaveLines writes betting lines to betting_lines.csv, one row per
// game/provider pair.
func (f *FileCache) SaveLines(lines []GameLines) error {
	rows := make([][]string, 0, len(lines))
	for _, g := range lines {
		for _, l := range g.Lines {
			rows = append(rows, []string{
				strconv.FormatInt(g.ID, 10),
				strconv.Itoa(g.Season),
				g.SeasonType,
				strconv.Itoa(g.Week),
				g.HomeTeam,
				formatOptInt(g.HomeScore),
				g.AwayTeam,
				formatOptInt(g.AwayScore),
				l.Provider,
				formatOptDecimal(l.Spread),
				formatOptDecimal(l.OverUnder),
				formatOptInt(l.HomeMoneyline),
				formatOptInt(l.AwayMoneyline),
				l.FormattedSpread,
			})
		}
	}
	header := []string{"gameId", "season", "seasonType", "week", "homeTeam", "homeScore",
		"awayTeam", "awayScore", "provider", "spread", "overUnder", "homeMoneyline", "awayMoneyline", "formattedSpread"}
	return f.writeCSV(linesFile, header, rows)
}

// LoadLines reads betting_lines.csv, regrouping provider rows by game.
func (f *FileCache) LoadLines() ([]GameLines, error) {
	rows, err := f.readCSV(linesFile, 14)
	if err != nil {
		return nil, err
	}
	var lines []GameLines
	index := map[int64]int{}
	for _, r := range rows {
		id, err := strconv.ParseInt(r[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad game id %q: %w", linesFile, r[0], err)
		}
		spread, err := parseOptDecimal(r[9])
		if err != nil {
			return nil, fmt.Errorf("%s: bad spread %q: %w", linesFile, r[9], err)
		}
		overUnder, err := parseOptDecimal(r[10])
		if err != nil {
			return nil, fmt.Errorf("%s: bad over/under %q: %w", linesFile, r[10], err)
		}
		line := Line{
			Provider:        r[8],
			Spread:          spread,
			OverUnder:       overUnder,
			HomeMoneyline:   parseOptInt(r[11]),
			AwayMoneyline:   parseOptInt(r[12]),
			FormattedSpread: r[13],
		}
		if i, ok := index[id]; ok {
			lines[i].Lines = append(lines[i].Lines, line)
			continue
		}
		index[id] = len(lines)
		lines = append(lines, GameLines{
			ID:         id,
			Season:     atoiOrZero(r[1]),
			SeasonType: r[2],
			Week:       atoiOrZero(r[3]),
			HomeTeam:   r[4],
			HomeScore:  parseOptInt(r[5]),
			AwayTeam:   r[6],
			AwayScore:  parseOptInt(r[7]),
			Lines:      []Line{line},
		})
	}
	return lines, nil
}

// SaveRecords writes team records to records.csv.
func (f *FileCache) SaveRecords(records []TeamRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Year),
			r.Team,
			r.Conference,
			strconv.FormatFloat(r.ExpectedWins, 'g', -1, 64),
			strconv.Itoa(r.Total.Games),
			strconv.Itoa(r.Total.Wins),
			strconv.Itoa(r.Total.Losses),
			strconv.Itoa(r.Total.Ties),
		})
	}
	header := []string{"year", "team", "conference", "expectedWins", "games", "wins", "losses", "ties"}
	return f.writeCSV(recordsFile, header, rows)
}

// LoadRecords reads records.csv.
func (f *FileCache) LoadRecords() ([]TeamRecord, error) {
	rows, err := f.readCSV(recordsFile, 8)
	if err != nil {
		return nil, err
	}
	records := make([]TeamRecord, 0, len(rows))
	for _, r := range rows {
		expected, _ := strconv.ParseFloat(r[3], 64)
		records = append(records, TeamRecord{
			Year:         atoiOrZero(r[0]),
			Team:         r[1],
			Conference:   r[2],
			ExpectedWins: expected,
			Total: RecordTotals{
				Games:  atoiOrZero(r[4]),
				Wins:   atoiOrZero(r[5]),
				Losses: atoiOrZero(r[6]),
				Ties:   atoiOrZero(r[7]),
			},
		})
	}
	return records, nil
}

func (f *FileCache) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(f.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s row: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	return file.Close()
}

func (f *FileCache) readCSV(name string, fields int) ([][]string, error) {
	path := filepath.Join(f.dir, name)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrCacheMiss)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = fields
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[1:], nil
}

func formatOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseOptInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func formatOptDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func parseOptDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func atoiOrZero(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
