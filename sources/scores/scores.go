// Package scores is a board module showing live, upcoming and finished
// games from the public ESPN scoreboard feeds, one game per carousel page.
package scores

import (
	"context"
	"image"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/BeatGlow/infoboard"
	"github.com/BeatGlow/infoboard/draw"
	"github.com/BeatGlow/infoboard/font"
	"github.com/BeatGlow/infoboard/internal/fetch"
	"github.com/BeatGlow/infoboard/pixel"
)

// LeagueURLs maps the supported league names to their scoreboard feeds.
var LeagueURLs = map[string]string{
	"NBA":  "https://site.api.espn.com/apis/site/v2/sports/basketball/nba/scoreboard",
	"WNBA": "https://site.api.espn.com/apis/site/v2/sports/basketball/wnba/scoreboard",
	"NFL":  "https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard",
	"NHL":  "https://site.api.espn.com/apis/site/v2/sports/hockey/nhl/scoreboard",
	"MLB":  "https://site.api.espn.com/apis/site/v2/sports/baseball/mlb/scoreboard",
}

// Config holds the scores module settings.
type Config struct {
	// Name identifies the module on the board, "scores" if empty.
	Name string

	// Leagues to poll, keys of LeagueURLs. Unknown names are logged and
	// skipped.
	Leagues []string

	// Favorites maps a league to team names whose games sort to the
	// front of their phase. Names match fuzzily against the feed.
	Favorites map[string][]string

	// Lookahead drops games starting further out. Default 7 days.
	Lookahead time.Duration

	// Dwell is the time each game stays on screen. Default 3s.
	Dwell time.Duration

	// Slot overrides the game-count based slot duration when set.
	Slot time.Duration

	// Location for scheduled game times. Nil means local time.
	Location *time.Location
}

// Phase classifies a game for ordering and status color.
type Phase uint8

const (
	Live Phase = iota
	Upcoming
	Final
	Other
)

// Team is one side of a game.
type Team struct {
	Abbr  string
	Name  string
	Color pixel.RGB
	Score string
}

// Game is one scoreboard entry.
type Game struct {
	League   string
	Phase    Phase
	Detail   string
	Start    time.Time
	Away     Team
	Home     Team
	Odds     string
	Favorite bool
}

// State is one combined scoreboard snapshot across all leagues.
type State struct {
	Games     []Game
	FetchedAt time.Time
}

// Module fetches and renders the scoreboard.
type Module struct {
	cfg     Config
	log     *log.Logger
	loc     *time.Location
	leagues []string
	clients map[string]*fetch.Client

	car *infoboard.Carousel
	gen time.Time

	mu    sync.Mutex
	cache map[string][]Game
}

var (
	_ infoboard.Module    = (*Module)(nil)
	_ infoboard.Activator = (*Module)(nil)
)

// New returns a scores module polling the configured leagues.
func New(cfg Config, client *http.Client, logger *log.Logger) *Module {
	if cfg.Name == "" {
		cfg.Name = "scores"
	}
	if cfg.Lookahead == 0 {
		cfg.Lookahead = 7 * 24 * time.Hour
	}
	if cfg.Dwell == 0 {
		cfg.Dwell = 3 * time.Second
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	m := &Module{
		cfg:     cfg,
		log:     logger,
		loc:     loc,
		clients: make(map[string]*fetch.Client),
		car:     infoboard.NewCarousel(cfg.Dwell),
		cache:   make(map[string][]Game),
	}
	for _, league := range cfg.Leagues {
		key := strings.ToUpper(league)
		url, ok := LeagueURLs[key]
		if !ok {
			logger.Printf("unknown league %q", league)
			continue
		}
		if _, dup := m.clients[key]; dup {
			continue
		}
		m.leagues = append(m.leagues, key)
		m.clients[key] = &fetch.Client{URL: url, HTTP: client}
	}
	return m
}

// Name implements infoboard.Module.
func (m *Module) Name() string {
	return m.cfg.Name
}

// Feed payload, the slice of it we consume.
type scoreboard struct {
	Events []event `json:"events"`
}

type event struct {
	Date         string        `json:"date"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Status struct {
		Type struct {
			Name        string `json:"name"`
			ShortDetail string `json:"shortDetail"`
		} `json:"type"`
	} `json:"status"`
	Competitors []competitor `json:"competitors"`
	Odds        []odds       `json:"odds"`
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
	Team     struct {
		Abbreviation string `json:"abbreviation"`
		DisplayName  string `json:"displayName"`
		Color        string `json:"color"`
	} `json:"team"`
}

type odds struct {
	Details      string `json:"details"`
	HomeTeamOdds struct {
		DisplayOdds string `json:"displayOdds"`
	} `json:"homeTeamOdds"`
	AwayTeamOdds struct {
		DisplayOdds string `json:"displayOdds"`
	} `json:"awayTeamOdds"`
}

// Refresh implements infoboard.Module. Each league feed is polled
// separately; leagues that fail keep their cached games so one flaky feed
// does not blank the rest.
func (m *Module) Refresh(ctx context.Context) (infoboard.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var firstErr error
	fetched := 0
	for _, league := range m.leagues {
		var payload scoreboard
		changed, err := m.clients[league].GetJSON(ctx, &payload)
		if err != nil {
			m.log.Printf("%s: %v", league, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fetched++
		if !changed {
			continue
		}
		m.cache[league] = m.parseGames(&payload, league, now)
	}
	if fetched == 0 {
		return nil, firstErr
	}

	var games []Game
	for _, league := range m.leagues {
		games = append(games, m.cache[league]...)
	}
	sortGames(games)
	return &State{Games: games, FetchedAt: now}, nil
}

func (m *Module) parseGames(sb *scoreboard, league string, now time.Time) []Game {
	horizon := now.Add(m.cfg.Lookahead)
	games := make([]Game, 0, len(sb.Events))
	for _, ev := range sb.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := &ev.Competitions[0]
		if len(comp.Competitors) < 2 {
			continue
		}

		away, home := comp.Competitors[0], comp.Competitors[1]
		if home.HomeAway == "away" {
			away, home = home, away
		}

		g := Game{
			League: league,
			Phase:  phaseOf(comp.Status.Type.Name),
			Away:   team(away, "AWAY"),
			Home:   team(home, "HOME"),
		}
		if ev.Date != "" {
			if t, err := parseEventTime(ev.Date); err == nil {
				g.Start = t
			} else {
				m.log.Printf("%s: bad event date %q: %v", league, ev.Date, err)
			}
		}
		if !g.Start.IsZero() && g.Start.After(horizon) {
			continue
		}
		if g.Phase == Upcoming {
			g.Odds = oddsLine(comp.Odds)
		}
		g.Detail = m.detail(&g, comp.Status.Type.ShortDetail, now)
		g.Favorite = m.favorite(league, g.Away) || m.favorite(league, g.Home)
		games = append(games, g)
	}
	return games
}

// Feed timestamps come with minute precision, RFC 3339 needs seconds.
func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04Z07:00", s)
}

func phaseOf(status string) Phase {
	switch status {
	case "STATUS_IN_PROGRESS":
		return Live
	case "STATUS_SCHEDULED":
		return Upcoming
	case "STATUS_FINAL":
		return Final
	default:
		return Other
	}
}

func team(c competitor, fallback string) Team {
	t := Team{
		Abbr:  c.Team.Abbreviation,
		Name:  c.Team.DisplayName,
		Score: c.Score,
	}
	if t.Abbr == "" {
		t.Abbr = fallback
	}
	if t.Score == "" {
		t.Score = "0"
	}
	if rgb, err := pixel.ParseRGB(c.Team.Color); err == nil {
		t.Color = rgb
	}
	if t.Color == (pixel.RGB{}) {
		t.Color = pixel.RGB{R: 0x80, G: 0x80, B: 0x80}
	}
	return t
}

func oddsLine(list []odds) string {
	if len(list) == 0 {
		return ""
	}
	o := &list[0]
	if o.Details != "" {
		return o.Details
	}
	if o.AwayTeamOdds.DisplayOdds != "" && o.HomeTeamOdds.DisplayOdds != "" {
		return o.AwayTeamOdds.DisplayOdds + "/" + o.HomeTeamOdds.DisplayOdds
	}
	return ""
}

func (m *Module) detail(g *Game, short string, now time.Time) string {
	switch g.Phase {
	case Upcoming:
		return m.timeLabel(g.Start, now)
	case Live, Final:
		return short
	default:
		if fields := strings.Fields(short); len(fields) > 2 {
			return strings.Join(fields[:2], " ")
		}
		return short
	}
}

func (m *Module) timeLabel(start, now time.Time) string {
	if start.IsZero() {
		return "TBD"
	}
	local := start.In(m.loc)
	today := now.In(m.loc)
	if local.Year() == today.Year() && local.YearDay() == today.YearDay() {
		return local.Format("3:04PM")
	}
	return local.Format("1/2 3:04PM")
}

func (m *Module) favorite(league string, t Team) bool {
	for _, name := range m.cfg.Favorites[league] {
		if matchTeam(name, t) {
			return true
		}
	}
	return false
}

// matchTeam reports whether a configured name refers to the team. Config
// names are short ("Warriors"), the feed gives abbreviations and full
// display names, so matching is fuzzy: abbreviation equality, display name
// substring, or a display name token within edit distance one.
func matchTeam(name string, t Team) bool {
	want := strings.ToLower(name)
	if want == strings.ToLower(t.Abbr) {
		return true
	}
	display := strings.ToLower(t.Name)
	if strings.Contains(display, want) {
		return true
	}
	for _, token := range strings.Fields(display) {
		if levenshtein.ComputeDistance(want, token) <= 1 {
			return true
		}
	}
	return false
}

// sortGames orders live before upcoming before finished, favorites first
// within their phase, then by start time with unknown starts last.
func sortGames(games []Game) {
	rank := func(p Phase) int {
		switch p {
		case Live:
			return 0
		case Upcoming:
			return 1
		default:
			return 2
		}
	}
	sort.SliceStable(games, func(i, j int) bool {
		a, b := &games[i], &games[j]
		if ra, rb := rank(a.Phase), rank(b.Phase); ra != rb {
			return ra < rb
		}
		if a.Favorite != b.Favorite {
			return a.Favorite
		}
		switch {
		case a.Start.IsZero():
			return false
		case b.Start.IsZero():
			return true
		default:
			return a.Start.Before(b.Start)
		}
	})
}

// Activate implements infoboard.Activator: every slot opens on the first
// game with a full dwell.
func (m *Module) Activate() {
	m.car.Reset()
}

// Render implements infoboard.Module.
func (m *Module) Render(frame draw.Image, state infoboard.State, tick infoboard.Tick) error {
	s, ok := state.(*State)
	if !ok || len(s.Games) == 0 {
		return nil
	}

	if !s.FetchedAt.Equal(m.gen) {
		m.gen = s.FetchedAt
		m.car.SetPages(len(s.Games))
	}
	m.car.Advance(tick.DT)

	g := &s.Games[m.car.Index()]
	b := frame.Bounds()

	draw.TextCenter(frame, b.Min.X, b.Max.X, b.Min.Y, font.Tiny, pixel.RGB{R: 0xff, G: 0xff}, g.League)

	awayRight, homeRight := g.Away.Score, g.Home.Score
	rightColor := pixel.White
	if g.Phase == Upcoming && g.Odds != "" {
		awayRight, homeRight = splitOdds(g.Odds)
		rightColor = pixel.RGB{R: 0xff, G: 0xff}
	}
	renderRow(frame, b, b.Min.Y+8, g.Away, awayRight, rightColor)
	renderRow(frame, b, b.Min.Y+15, g.Home, homeRight, rightColor)

	detail := draw.Fit(font.Tiny, strings.ToUpper(g.Detail), b.Dx()-2)
	draw.TextCenter(frame, b.Min.X, b.Max.X, b.Max.Y-6, font.Tiny, phaseColor(g.Phase), detail)
	return nil
}

func renderRow(frame draw.Image, b image.Rectangle, y int, t Team, right string, rightColor pixel.RGB) {
	draw.Box(frame, image.Rect(b.Min.X+1, y, b.Min.X+4, y+5), t.Color)
	draw.TextTop(frame, image.Pt(b.Min.X+6, y), font.Tiny, pixel.White, t.Abbr)
	draw.TextRight(frame, b.Max.X-1, y, font.Tiny, rightColor, draw.Fit(font.Tiny, right, 26))
}

// splitOdds puts a line like "GSW -6.5" or "-260/+210" on the two score
// columns.
func splitOdds(s string) (away, home string) {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
	}
	fields := strings.Fields(s)
	if len(fields) >= 2 {
		return fields[0], strings.Join(fields[1:], " ")
	}
	return s, ""
}

func phaseColor(p Phase) pixel.RGB {
	switch p {
	case Live:
		return pixel.RGB{G: 0xff}
	case Upcoming:
		return pixel.RGB{B: 0xff}
	case Final:
		return pixel.RGB{R: 0xff}
	default:
		return pixel.White
	}
}

// Duration implements infoboard.Module: more games earn a longer slot so
// the carousel gets through them.
func (m *Module) Duration(state infoboard.State) time.Duration {
	s, ok := state.(*State)
	if !ok || len(s.Games) == 0 {
		return 0
	}
	if m.cfg.Slot > 0 {
		return m.cfg.Slot
	}
	switch n := len(s.Games); {
	case n == 1:
		return 10 * time.Second
	case n <= 3:
		return 15 * time.Second
	case n <= 6:
		return 25 * time.Second
	default:
		return 35 * time.Second
	}
}
