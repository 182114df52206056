// Package bikeshare is a board module showing bike and dock supply at
// configured bike share stations, one station per page.
package bikeshare

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BeatGlow/infoboard"
	"github.com/BeatGlow/infoboard/draw"
	"github.com/BeatGlow/infoboard/font"
	"github.com/BeatGlow/infoboard/internal/fetch"
	"github.com/BeatGlow/infoboard/pixel"
)

// DefaultURL is the Lyft bike share GraphQL endpoint.
const DefaultURL = "https://account.baywheels.com/bikesharefe-gql"

// minRangeMiles is the battery range below which an e-bike is not counted;
// a bike that cannot make a trip is not really available.
const minRangeMiles = 3.0

// supplyQuery asks for the station supply the way the Lyft web client does.
const supplyQuery = `query GetSystemSupply($input: SupplyInput) {
  supply(input: $input) {
    stations {
      stationId
      stationName
      location {
        lat
        lng
      }
      bikesAvailable
      bikeDocksAvailable
      ebikesAvailable
      ebikes {
        rideableName
        batteryStatus {
          distanceRemaining {
            value
            unit
          }
        }
      }
    }
  }
}`

// Config holds the bikeshare module settings.
type Config struct {
	// Name identifies the module on the board, "bikeshare" if empty.
	Name string

	// Region is the system region code. Default "SFO".
	Region string

	// URL overrides the GraphQL endpoint, mainly for tests.
	URL string

	// Stations to watch by exact station name, in page order.
	Stations []string

	// Dwell is how long each station page shows. Default 5s.
	Dwell time.Duration

	// Slot overrides the slot duration. 0 means one dwell per station.
	Slot time.Duration
}

// Station is one station's supply page.
type Station struct {
	Name      string
	Docks     int
	Bikes     int
	EBikesOld int
	EBikesNew int
}

// State is one supply snapshot across the configured stations.
type State struct {
	Stations  []Station
	FetchedAt time.Time
}

// Module fetches and pages through the station supply.
type Module struct {
	cfg  Config
	http *http.Client
	log  *log.Logger

	car *infoboard.Carousel
	gen time.Time
}

var (
	_ infoboard.Module    = (*Module)(nil)
	_ infoboard.Activator = (*Module)(nil)
)

// New returns a bikeshare module watching the configured stations.
func New(cfg Config, client *http.Client, logger *log.Logger) *Module {
	if cfg.Name == "" {
		cfg.Name = "bikeshare"
	}
	if cfg.Region == "" {
		cfg.Region = "SFO"
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Dwell == 0 {
		cfg.Dwell = 5 * time.Second
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Module{
		cfg:  cfg,
		http: client,
		log:  logger,
		car:  infoboard.NewCarousel(cfg.Dwell),
	}
}

// Name implements infoboard.Module.
func (m *Module) Name() string {
	return m.cfg.Name
}

type supplyRequest struct {
	OperationName string          `json:"operationName"`
	Variables     supplyVariables `json:"variables"`
	Query         string          `json:"query"`
}

type supplyVariables struct {
	Input supplyInput `json:"input"`
}

type supplyInput struct {
	RegionCode        string `json:"regionCode"`
	RideablePageLimit int    `json:"rideablePageLimit"`
}

type supplyReply struct {
	Data struct {
		Supply struct {
			Stations []stationSupply `json:"stations"`
		} `json:"supply"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type stationSupply struct {
	StationName        string `json:"stationName"`
	BikesAvailable     int    `json:"bikesAvailable"`
	BikeDocksAvailable int    `json:"bikeDocksAvailable"`
	EBikes             []struct {
		RideableName  string `json:"rideableName"`
		BatteryStatus struct {
			DistanceRemaining struct {
				Value float64 `json:"value"`
				Unit  string  `json:"unit"`
			} `json:"distanceRemaining"`
		} `json:"batteryStatus"`
	} `json:"ebikes"`
}

// Refresh implements infoboard.Module. One query returns the whole region;
// configured stations missing from the reply are dropped from the snapshot.
func (m *Module) Refresh(ctx context.Context) (infoboard.State, error) {
	payload := supplyRequest{
		OperationName: "GetSystemSupply",
		Variables: supplyVariables{Input: supplyInput{
			RegionCode:        m.cfg.Region,
			RideablePageLimit: 1000,
		}},
		Query: supplyQuery,
	}
	var reply supplyReply
	if err := fetch.PostJSON(ctx, m.http, m.cfg.URL, payload, &reply); err != nil {
		return nil, err
	}
	if len(reply.Errors) > 0 {
		return nil, fmt.Errorf("bikeshare: supply query: %s", reply.Errors[0].Message)
	}

	byName := make(map[string]stationSupply, len(reply.Data.Supply.Stations))
	for _, st := range reply.Data.Supply.Stations {
		byName[st.StationName] = st
	}
	stations := make([]Station, 0, len(m.cfg.Stations))
	for _, name := range m.cfg.Stations {
		st, ok := byName[name]
		if !ok {
			m.log.Printf("station %q not in the supply feed", name)
			continue
		}
		stations = append(stations, summarize(st))
	}
	m.log.Printf("updated %d of %d stations", len(stations), len(m.cfg.Stations))
	return &State{Stations: stations, FetchedAt: time.Now()}, nil
}

func summarize(st stationSupply) Station {
	out := Station{
		Name:  st.StationName,
		Docks: st.BikeDocksAvailable,
		Bikes: st.BikesAvailable,
	}
	for _, bike := range st.EBikes {
		if bike.BatteryStatus.DistanceRemaining.Value <= minRangeMiles {
			continue
		}
		if nextGen(bike.RideableName) {
			out.EBikesNew++
		} else {
			out.EBikesOld++
		}
	}
	return out
}

// nextGen reports whether a rideable name belongs to the newer e-bike
// fleet. The feed masks serial numbers ("···3632"); the new fleet shows
// four digits, the old fleet three.
func nextGen(rideableName string) bool {
	return len(strings.ReplaceAll(rideableName, "···", "")) == 4
}

// Activate implements infoboard.Activator: every slot opens on the first
// station page with a full dwell.
func (m *Module) Activate() {
	m.car.Reset()
}

// Render implements infoboard.Module.
func (m *Module) Render(frame draw.Image, state infoboard.State, tick infoboard.Tick) error {
	s, ok := state.(*State)
	if !ok || len(s.Stations) == 0 {
		return nil
	}

	if !s.FetchedAt.Equal(m.gen) {
		m.gen = s.FetchedAt
		m.car.SetPages(len(s.Stations))
	}
	m.car.Advance(tick.DT)
	st := s.Stations[m.car.Index()]

	b := frame.Bounds()
	docks := strconv.Itoa(st.Docks) + "D"
	docksX := b.Max.X - 1 - draw.TextWidth(font.Tiny, docks)
	draw.TextTop(frame, image.Pt(docksX, b.Min.Y), font.Tiny, pixel.RGB{R: 0x80, G: 0x80, B: 0x80}, docks)

	name := draw.Fit(font.Tiny, strings.ToUpper(st.Name), docksX-(b.Min.X+1)-2)
	draw.TextTop(frame, image.Pt(b.Min.X+1, b.Min.Y), font.Tiny, pixel.RGB{R: 0xff, G: 0xff}, name)

	iconY := b.Min.Y + 12
	countY := b.Min.Y + 18
	x := b.Min.X + 1
	for _, col := range []struct {
		icon  *pixel.MonoImage
		color pixel.RGB
		count int
	}{
		{wheelIcon, pixel.RGB{R: 0xc8, G: 0xc8, B: 0xc8}, st.Bikes},
		{boltIcon, pixel.RGB{G: 0xff}, st.EBikesOld},
		{nextGenIcon, pixel.RGB{G: 0x64, B: 0xff}, st.EBikesNew},
	} {
		draw.Icon(frame, image.Pt(x, iconY), col.icon, col.color)
		draw.TextTop(frame, image.Pt(x+10, countY), font.Tiny, pixel.White, strconv.Itoa(col.count))
		x += 20
	}
	return nil
}

// Duration implements infoboard.Module: one dwell per station page unless a
// fixed slot is configured.
func (m *Module) Duration(state infoboard.State) time.Duration {
	s, ok := state.(*State)
	if !ok || len(s.Stations) == 0 {
		return 0
	}
	if m.cfg.Slot > 0 {
		return m.cfg.Slot
	}
	return time.Duration(len(s.Stations)) * m.cfg.Dwell
}

// wheelIcon is a bike wheel, rim and crossed spokes.
var wheelIcon = pixel.NewBitmap(
	"..#####..",
	".#..#..#.",
	"#...#...#",
	"#...#...#",
	"#########",
	"#...#...#",
	"#...#...#",
	".#..#..#.",
	"..#####..",
)

// boltIcon marks the older e-bike fleet.
var boltIcon = pixel.NewBitmap(
	"..##.....",
	"...##....",
	"....##...",
	".....##..",
	"######...",
	"..##.....",
	"...##....",
	"....##...",
	".....##..",
)

// nextGenIcon is the wider bolt marking the newer e-bike fleet.
var nextGenIcon = pixel.NewBitmap(
	".###.....",
	"..###....",
	"...###...",
	"....###..",
	"#######..",
	".###.....",
	"..###....",
	"...###...",
	"....###..",
)
