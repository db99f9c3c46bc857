package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
	"github.com/spacescrapers/towerphys/challenge"
	"github.com/spacescrapers/towerphys/level"
	"github.com/spacescrapers/towerphys/simulation"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// Scene renders one level attempt in the terminal
type Scene struct {
	screen        tcell.Screen
	width, height int

	catalog    *level.Catalog
	level      level.Level
	controller *simulation.Controller
	placed     []simulation.PlacedTile

	lastFrame time.Time
	status    string
}

func NewScene(catalog *level.Catalog, l level.Level) (*Scene, error) {
	controller, err := catalog.Controller(l)
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	s := &Scene{
		screen:     screen,
		catalog:    catalog,
		level:      l,
		controller: controller,
		placed:     stackTower(catalog.Arena.Width/2-60, l.Quota()),
	}
	s.width, s.height = screen.Size()

	controller.OnPhaseChange(func(from, to simulation.Phase) {
		log.Info("phase changed", "from", from, "to", to,
			"elapsed", fmt.Sprintf("%.2fs", controller.Elapsed()),
			"tower", math.Round(controller.TowerHeight()), "target", l.TargetHeight)
		switch to {
		case simulation.Won:
			s.status = "TOWER SURVIVED! r: retry, q: quit"
		case simulation.Lost:
			s.status = "TOWER FELL SHORT. r: retry, q: quit"
		}
	})
	events := controller.Events()
	events.Subscribe(towerphys.ON_SLEEP, func(event towerphys.Event) {
		log.Debug("tile settled", "tile", event.(towerphys.SleepEvent).Body.Index)
	})
	events.Subscribe(towerphys.ON_WAKE, func(event towerphys.Event) {
		log.Debug("tile woke up", "tile", event.(towerphys.WakeEvent).Body.Index)
	})
	events.Subscribe(towerphys.SUPPORT_CHANGED, func(event towerphys.Event) {
		e := event.(towerphys.SupportChangedEvent)
		log.Debug("support changed", "tile", e.Body.Index, "from", e.From, "to", e.To)
	})

	s.status = "space: start simulation, q: quit"
	return s, nil
}

// stackTower piles the whole quota into one column, heaviest tiles first
func stackTower(x float64, quota map[actor.TileType]int) []simulation.PlacedTile {
	var placed []simulation.PlacedTile
	height := 0.0
	for _, t := range actor.TileTypes() {
		size := actor.ShapeOf(t).Size
		for range quota[t] {
			placed = append(placed, simulation.PlacedTile{
				Type:     t,
				Position: mgl64.Vec2{x, height + size.Y()/2},
			})
			height += size.Y()
		}
	}

	return placed
}

func (s *Scene) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			if err := s.controller.StartSimulation(s.placed); err != nil {
				log.Warn("start rejected", "err", err)
				return true
			}
			s.status = "simulating..."
			s.lastFrame = time.Now()
		case 'r':
			if err := s.controller.Reset(); err != nil {
				log.Warn("reset rejected", "err", err)
				return true
			}
			s.status = "space: start simulation, q: quit"
		}

	case *tcell.EventResize:
		s.width, s.height = s.screen.Size()
		s.screen.Sync()
	}

	return true
}

func (s *Scene) update() {
	now := time.Now()
	elapsed := now.Sub(s.lastFrame).Seconds()
	s.lastFrame = now

	if s.controller.Phase() != simulation.Simulating {
		return
	}
	if _, err := s.controller.Advance(elapsed); err != nil {
		log.Error("advance failed", "err", err)
	}
}

// toScreen maps world coordinates (y-up, pixels) to terminal cells
func (s *Scene) toScreen(p mgl64.Vec2) (int, int) {
	arena := s.catalog.Arena
	rows := s.height - 2
	x := int(p.X() / arena.Width * float64(s.width))
	y := rows - int(p.Y()/arena.Sky*float64(rows))
	return x, y
}

func (s *Scene) set(x, y int, r rune, style tcell.Style) {
	if x >= 0 && x < s.width && y >= 1 && y < s.height-1 {
		s.screen.SetContent(x, y, r, nil, style)
	}
}

func (s *Scene) text(x, y int, str string, style tcell.Style) {
	for i, r := range str {
		if x+i < s.width {
			s.screen.SetContent(x+i, y, r, nil, style)
		}
	}
}

func tileRune(t actor.TileType) rune {
	switch t {
	case actor.TileRectangle:
		return '█'
	case actor.TileSquare:
		return '▓'
	default:
		return '▒'
	}
}

func tileStyle(body towerphys.BodyState) tcell.Style {
	switch {
	case body.Inert:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	case body.Static:
		return tcell.StyleDefault.Foreground(tcell.ColorBlue)
	case body.Support == actor.SupportNone:
		return tcell.StyleDefault.Foreground(tcell.ColorRed)
	case body.Support == actor.SupportPartial:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	}
	return tcell.StyleDefault.Foreground(tcell.ColorGreen)
}

// drawBody fills the footprint, sheared by the visual tilt
func (s *Scene) drawBody(body towerphys.BodyState) {
	aabb := body.AABB()
	x0, y1 := s.toScreen(aabb.Min)
	x1, y0 := s.toScreen(aabb.Max)
	_, cy := s.toScreen(body.Position)
	shear := math.Tan(mgl64.DegToRad(body.Pose.Angle)) * 0.5

	r := tileRune(body.Type)
	style := tileStyle(body)
	for y := y0; y < max(y1, y0+1); y++ {
		offset := int(math.Round(float64(cy-y) * -shear))
		for x := x0; x < max(x1, x0+1); x++ {
			s.set(x+offset, y, r, style)
		}
	}
}

func (s *Scene) drawHazard() {
	hazard, ok := s.controller.Generator().(challenge.Hazard)
	if !ok || hazard == nil {
		return
	}

	if warning := hazard.Warning(s.controller.Elapsed()); warning != "" {
		s.text(s.width/2-len(warning)/2, 1, warning, tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
	}
	if !hazard.Active() {
		return
	}

	switch h := hazard.(type) {
	case *challenge.WreckingBall:
		ax, ay := s.toScreen(h.Anchor)
		bx, by := s.toScreen(h.Position())
		for i := range 10 {
			t := float64(i) / 10
			s.set(ax+int(float64(bx-ax)*t), ay+int(float64(by-ay)*t), '·', tcell.StyleDefault.Foreground(tcell.ColorGray))
		}
		s.set(bx, by, '●', tcell.StyleDefault.Foreground(tcell.ColorWhite))
	case *challenge.Wind:
		s.text(0, 1, fmt.Sprintf("WIND %+5.1f", h.Current()), tcell.StyleDefault.Foreground(tcell.ColorAqua))
	case *challenge.MeteoriteShower:
		for _, m := range h.Meteorites() {
			x, y := s.toScreen(m.Position)
			s.set(x, y, '*', tcell.StyleDefault.Foreground(tcell.ColorOrange))
		}
		s.text(0, 1, fmt.Sprintf("METEORITES %d/%d", h.Spawned(), h.MaxMeteorites), tcell.StyleDefault.Foreground(tcell.ColorOrange))
	}
}

func (s *Scene) draw() {
	s.screen.Clear()

	// Target line
	_, ty := s.toScreen(mgl64.Vec2{0, s.level.TargetHeight})
	for x := 0; x < s.width; x++ {
		s.set(x, ty, '-', tcell.StyleDefault.Foreground(tcell.ColorYellow))
	}

	var bodies []towerphys.BodyState
	if s.controller.Phase() == simulation.Building {
		for i, tile := range s.placed {
			shape := actor.ShapeOf(tile.Type)
			bodies = append(bodies, towerphys.BodyState{Index: i, Type: tile.Type, Size: shape.Size, Position: tile.Position, Static: true, Support: actor.SupportFull})
		}
	} else {
		bodies = s.controller.Bodies()
	}
	for _, body := range bodies {
		s.drawBody(body)
	}

	s.drawHazard()

	// Floor
	for x := 0; x < s.width; x++ {
		s.screen.SetContent(x, s.height-1, '▀', nil, tcell.StyleDefault.Foreground(tcell.ColorOlive))
	}

	hud := fmt.Sprintf("%s  target %.0f  tower %.0f  %s  %.1fs left",
		s.level.Name, s.level.TargetHeight, s.controller.TowerHeight(), s.controller.Phase(), s.controller.Remaining())
	s.text(0, 0, hud, tcell.StyleDefault.Foreground(tcell.ColorWhite))
	s.text(max(0, s.width-len(s.status)), 0, s.status, tcell.StyleDefault.Foreground(tcell.ColorWhite))

	s.screen.Show()
}

func (s *Scene) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- s.screen.PollEvent()
		}
	}()

	s.lastFrame = time.Now()
	for {
		select {
		case ev := <-eventChan:
			if !s.handleInput(ev) {
				return
			}

		case <-ticker.C:
			s.update()
			s.draw()
		}
	}
}

func (s *Scene) cleanup() {
	s.screen.Fini()
}

func main() {
	levelID := flag.Int("level", 1, "level id")
	levelsPath := flag.String("levels", "", "level catalog (yaml), the embedded catalog when empty")
	logPath := flag.String("log", "towerscene.log", "log file")
	verbose := flag.Bool("v", false, "log tile events")
	recordPath := flag.String("record", "", "write the attempt frames (msgpack) to this file")
	flag.Parse()

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "scene",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	log.SetDefault(logger)

	catalog := level.Default()
	if *levelsPath != "" {
		if catalog, err = level.LoadFile(*levelsPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load levels: %v\n", err)
			os.Exit(1)
		}
	}

	l, ok := catalog.Level(*levelID)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown level %d\n", *levelID)
		os.Exit(1)
	}

	scene, err := NewScene(catalog, l)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer scene.cleanup()

	if *recordPath != "" {
		recordFile, err := os.Create(*recordPath)
		if err != nil {
			scene.cleanup()
			fmt.Fprintf(os.Stderr, "Failed to create recording: %v\n", err)
			os.Exit(1)
		}
		defer recordFile.Close()

		recorder := simulation.NewRecorder(scene.controller, recordFile, 6)
		defer func() {
			if err := recorder.Err(); err != nil {
				log.Error("recording failed", "err", err)
			}
			log.Info("recording closed", "frames", recorder.Frames(), "path", *recordPath)
		}()
	}

	log.Info("level loaded", "id", l.ID, "name", l.Name, "tiles", len(scene.placed), "challenge", l.Challenge.Kind)
	scene.run()
}
