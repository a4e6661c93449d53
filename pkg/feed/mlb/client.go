// Package mlb builds records from the MLB stats API schedule.
package mlb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/display"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

// DefaultBaseURL is the public stats API endpoint.
const DefaultBaseURL = "https://statsapi.mlb.com"

// DateLayout is the date format accepted by the schedule endpoint.
const DateLayout = "01/02/2006"

// Client fetches the games of a day.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Clock      fx.TimeSource

	// Date is the day to show in DateLayout, today if empty.
	Date string
	// SpoilerTeam hides games involving this team ID, 0 disables.
	SpoilerTeam int
}

// NewClient creates a Client with defaults.
func NewClient(clock fx.TimeSource) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
		Clock:      clock,
	}
}

type scheduleResponse struct {
	Dates []struct {
		Games []game `json:"games"`
	} `json:"dates"`
}

type game struct {
	GamePk int `json:"gamePk"`
	Status struct {
		DetailedState string `json:"detailedState"`
	} `json:"status"`
	Teams struct {
		Away side `json:"away"`
		Home side `json:"home"`
	} `json:"teams"`
}

type side struct {
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Score        int `json:"score"`
	LeagueRecord struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
	} `json:"leagueRecord"`
}

// Fetch implements display.Source. Only games in progress or final are
// returned.
func (c *Client) Fetch(ctx context.Context) ([]display.Record, error) {
	date := c.Date
	if date == "" {
		date = c.Clock.Time().Format(DateLayout)
	}
	q := url.Values{}
	q.Set("sportId", "1")
	q.Set("date", date)
	q.Set("hydrate", "team")
	req, err := http.NewRequest(http.MethodGet, strings.TrimSuffix(c.BaseURL, "/")+"/api/v1/schedule?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule %s: %s", date, resp.Status)
	}
	var sched scheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&sched); err != nil {
		return nil, fmt.Errorf("decode schedule: %v", err)
	}
	var records []display.Record
	for _, d := range sched.Dates {
		for _, g := range d.Games {
			if rec, ok := c.record(g); ok {
				records = append(records, rec)
			}
		}
	}
	glog.V(2).Infof("mlb: %d games on %s", len(records), date)
	return records, nil
}

func (c *Client) record(g game) (display.Record, bool) {
	state := g.Status.DetailedState
	final := strings.Contains(state, "Final")
	if !final && !strings.Contains(state, "Progress") {
		return display.Record{}, false
	}
	away, home := g.Teams.Away, g.Teams.Home
	if c.SpoilerTeam != 0 && (away.Team.ID == c.SpoilerTeam || home.Team.ID == c.SpoilerTeam) {
		return display.Record{}, false
	}
	rec := display.Record{
		AwayRatio: away.winRatio(),
		HomeRatio: home.winRatio(),
	}
	if !final {
		rec.Away = fmt.Sprintf("%s (%d)", away.Team.Name, away.Score)
		rec.Home = fmt.Sprintf("%s (%d)", home.Team.Name, home.Score)
		return rec, true
	}
	homeResult, awayResult := "L", "W"
	if home.Score > away.Score {
		homeResult, awayResult = "W", "L"
	}
	rec.Home = fmt.Sprintf("%s (%d-%d) %s", home.Team.Name, home.Score, away.Score, homeResult)
	rec.Away = fmt.Sprintf("%s (%d-%d) %s", away.Team.Name, away.Score, home.Score, awayResult)
	return rec, true
}

func (s side) winRatio() float64 {
	played := s.LeagueRecord.Wins + s.LeagueRecord.Losses
	if played == 0 {
		return 0
	}
	return float64(s.LeagueRecord.Wins) / float64(played)
}
