// Package globe maps between geographic coordinates and the globe sphere,
// encodes region, arc and marker data for drawing, and resolves pointer
// positions to regions.
package globe

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Carmen-Shannon/oxy-globe/common"
	"github.com/Carmen-Shannon/oxy-globe/common/logging"
	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/eventbus"
	"github.com/Carmen-Shannon/oxy-globe/engine/game_object"
	"github.com/Carmen-Shannon/oxy-globe/engine/profiler"
)

// parallelEncodeThreshold is the region count from which encodings are computed on the worker pool.
const parallelEncodeThreshold = 32

// Picker casts a viewport pick ray against candidate objects. engine.Engine implements it.
type Picker interface {
	Pick(x, y float64, candidates []game_object.GameObject) []game_object.Hit
}

// InteractionSource reports the live gesture state, typically the camera.OrbitController.
type InteractionSource interface {
	Interacting() bool
	Dragging() bool
}

type outgoing struct {
	topic   string
	payload any
}

type globeImpl struct {
	mu *sync.Mutex

	radius        float64
	encoding      Encoding
	focusDistance float64
	focusDuration time.Duration
	workers       int

	object      game_object.GameObject
	picker      Picker
	animator    camera.CameraAnimator
	records     RecordSource
	interaction InteractionSource
	bus         eventbus.EventBus
	logger      logging.Logger
	metrics     *profiler.Collector
	pool        worker.DynamicWorkerPool
	subIDs      []string

	index     *regionIndex
	encodings []regionEncoding
	arcs      []ArcSegment
	markers   []Marker

	hoveredISO    string
	selectedISO   string
	pointer       common.ScreenPoint
	pointerInside bool
	interacting   bool
	elapsed       float64
}

// Globe owns the region, arc and marker data and turns pointer input into region events.
// With an event bus it follows frame:tick at eventbus.PriorityGlobe and the
// pointer topics published by the orbit controller.
type Globe interface {
	// Radius returns the sphere radius in world units.
	Radius() float64

	// Object returns the pickable sphere.
	Object() game_object.GameObject

	// Encoding returns the visual encoding constants.
	Encoding() Encoding

	// SetRegions replaces the region table. Order is lookup priority: the first
	// region containing a coordinate wins. Invalid or duplicate regions are dropped.
	//
	// Parameters:
	//   - features: the regions
	//
	// Returns:
	//   - []Diagnostic: one entry per dropped region
	SetRegions(features []RegionFeature) []Diagnostic

	// Regions returns a copy of the region table.
	Regions() []RegionFeature

	// Region returns the region with the given code.
	Region(isoCode string) (RegionFeature, bool)

	// RegionAt resolves a coordinate to a region.
	//
	// Parameters:
	//   - c: the coordinate
	//
	// Returns:
	//   - RegionFeature: the first region containing c
	//   - bool: false when no region contains c
	RegionAt(c GeoCoordinate) (RegionFeature, bool)

	// UpdateWeights sets new weights and recomputes encodings for the regions whose weight changed.
	// Unknown codes are ignored.
	//
	// Parameters:
	//   - weights: new weight per region code
	//
	// Returns:
	//   - int: the number of regions re-encoded
	UpdateWeights(weights map[string]float64) int

	// SetArcs validates and stores arcs. Arcs with a non-finite or out-of-range
	// coordinate are dropped with a diagnostic.
	//
	// Parameters:
	//   - arcs: the arcs
	//
	// Returns:
	//   - []Diagnostic: one entry per dropped arc
	SetArcs(arcs []ArcSegment) []Diagnostic

	// Arcs returns the retained arcs ordered by OrderIndex.
	Arcs() []ArcSegment

	// SetMarkers validates and stores markers like SetArcs.
	SetMarkers(markers []Marker) []Diagnostic

	// Markers returns the retained markers.
	Markers() []Marker

	// Renderables returns the encoded regions, arcs with their current dash phase, and markers.
	Renderables() Renderables

	// HandlePointerMove records the hover position. The hover is resolved on the next frame.
	HandlePointerMove(x, y float64)

	// HandlePointerLeave marks the pointer as outside the viewport.
	HandlePointerLeave()

	// HandleClick resolves a click immediately. A region with a record publishes
	// region:clicked, becomes selected and is focused; a region without one
	// publishes region:no-data. Clicks off the surface publish nothing.
	//
	// Parameters:
	//   - x, y: viewport position in pixels
	HandleClick(x, y float64)

	// Update advances the dash animation and resolves the hover, publishing
	// region:hovered only when the hovered region changes and region:hover-end
	// once when the pointer leaves every region.
	//
	// Parameters:
	//   - info: the current frame
	Update(info common.FrameInfo)

	// FocusRegion animates the camera to look at a region from FocusDistance radii
	// and publishes region:focused. Unknown codes are logged and ignored.
	//
	// Parameters:
	//   - isoCode: the region code
	//
	// Returns:
	//   - bool: true if a camera animation was started
	FocusRegion(isoCode string) bool

	// SelectRegion marks a region as selected without focusing it.
	SelectRegion(isoCode string) bool

	// ClearSelection clears the selected region.
	ClearSelection()

	// InteractionState returns the hovered and selected regions and the gesture flags.
	InteractionState() InteractionState

	// Close detaches the globe from the bus.
	Close()
}

var _ Globe = &globeImpl{}

// NewGlobe creates a globe with an empty data set.
//
// Parameters:
//   - options: functional options to configure the globe
//
// Returns:
//   - Globe: the newly created globe
func NewGlobe(options ...GlobeBuilderOption) Globe {
	g := &globeImpl{
		mu:            &sync.Mutex{},
		radius:        100,
		encoding:      DefaultEncoding(),
		focusDistance: 2.5,
		focusDuration: 1500 * time.Millisecond,
		workers:       runtime.NumCPU(),
		logger:        logging.Noop(),
		index:         newRegionIndex(nil),
	}
	for _, opt := range options {
		opt(g)
	}
	g.object = game_object.NewGameObject(
		game_object.WithName("globe"),
		game_object.WithSphere(mgl64.Vec3{}, g.radius),
	)
	g.pool = worker.NewDynamicWorkerPool(max(g.workers, 1), 256, 1*time.Second)

	if g.bus != nil {
		g.subIDs = []string{
			g.bus.Subscribe(eventbus.TopicFrameTick, func(evt eventbus.Event) error {
				if info, ok := evt.Payload.(common.FrameInfo); ok {
					g.Update(info)
				}
				return nil
			}, eventbus.WithPriority(eventbus.PriorityGlobe)),
			g.bus.Subscribe(eventbus.TopicPointerMove, func(evt eventbus.Event) error {
				if p, ok := evt.Payload.(camera.PointerPayload); ok {
					g.HandlePointerMove(p.X, p.Y)
				}
				return nil
			}, eventbus.WithPriority(eventbus.PriorityGlobe)),
			g.bus.Subscribe(eventbus.TopicPointerLeave, func(eventbus.Event) error {
				g.HandlePointerLeave()
				return nil
			}, eventbus.WithPriority(eventbus.PriorityGlobe)),
			g.bus.Subscribe(eventbus.TopicPointerClick, func(evt eventbus.Event) error {
				if p, ok := evt.Payload.(camera.PointerPayload); ok {
					g.HandleClick(p.X, p.Y)
				}
				return nil
			}, eventbus.WithPriority(eventbus.PriorityGlobe)),
			g.bus.Subscribe(eventbus.TopicInteractionStart, func(eventbus.Event) error {
				g.setInteracting(true)
				return nil
			}, eventbus.WithPriority(eventbus.PriorityGlobe)),
			g.bus.Subscribe(eventbus.TopicInteractionEnd, func(eventbus.Event) error {
				g.setInteracting(false)
				return nil
			}, eventbus.WithPriority(eventbus.PriorityGlobe)),
		}
	}
	return g
}

func (g *globeImpl) Radius() float64 {
	return g.radius
}

func (g *globeImpl) Object() game_object.GameObject {
	return g.object
}

func (g *globeImpl) Encoding() Encoding {
	return g.encoding
}

// --- data ---

func (g *globeImpl) SetRegions(features []RegionFeature) []Diagnostic {
	var (
		kept  = make([]RegionFeature, 0, len(features))
		seen  = make(map[string]bool, len(features))
		diags []Diagnostic
	)
	for i, f := range features {
		reason := f.validate()
		if reason == "" && seen[f.ISOCode] {
			reason = "duplicate iso code"
		}
		if reason != "" {
			diags = append(diags, Diagnostic{Kind: DiagnosticRegion, Index: i, ID: f.ISOCode, Reason: reason})
			continue
		}
		seen[f.ISOCode] = true
		f.Weight = sanitizeWeight(f.Weight)
		kept = append(kept, f)
	}
	encodings := g.encode(kept)

	var events []outgoing
	g.mu.Lock()
	if g.hoveredISO != "" && !seen[g.hoveredISO] {
		if i, ok := g.index.find(g.hoveredISO); ok {
			events = append(events, outgoing{eventbus.TopicRegionHoverEnd, HoverEndPayload{PreviousRegion: g.index.features[i]}})
		}
		g.hoveredISO = ""
	}
	g.index = newRegionIndex(kept)
	g.encodings = encodings
	if !seen[g.selectedISO] {
		g.selectedISO = ""
	}
	g.mu.Unlock()

	g.emit(events)
	g.report(DiagnosticRegion, diags)
	g.logger.Info(context.Background(), "regions loaded",
		logging.Int("count", len(kept)),
		logging.Int("dropped", len(diags)),
	)
	return diags
}

func (g *globeImpl) Regions() []RegionFeature {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]RegionFeature, len(g.index.features))
	copy(out, g.index.features)
	return out
}

func (g *globeImpl) Region(isoCode string) (RegionFeature, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.index.find(isoCode); ok {
		return g.index.features[i], true
	}
	return RegionFeature{}, false
}

func (g *globeImpl) RegionAt(c GeoCoordinate) (RegionFeature, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i, ok := g.index.lookup(c); ok {
		return g.index.features[i], true
	}
	return RegionFeature{}, false
}

func (g *globeImpl) UpdateWeights(weights map[string]float64) int {
	g.mu.Lock()
	index := g.index
	var (
		positions []int
		changed   []RegionFeature
	)
	for iso, w := range weights {
		i, ok := index.find(iso)
		if !ok {
			continue
		}
		w = sanitizeWeight(w)
		if index.features[i].Weight == w {
			continue
		}
		f := index.features[i]
		f.Weight = w
		positions = append(positions, i)
		changed = append(changed, f)
	}
	g.mu.Unlock()

	if len(changed) == 0 {
		return 0
	}
	encodings := g.encode(changed)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index != index {
		// regions were replaced while encoding
		return 0
	}
	for k, i := range positions {
		g.index.features[i].Weight = changed[k].Weight
		g.encodings[i] = encodings[k]
	}
	return len(changed)
}

// encode computes region encodings, on the worker pool for large inputs.
func (g *globeImpl) encode(features []RegionFeature) []regionEncoding {
	out := make([]regionEncoding, len(features))
	if len(features) < parallelEncodeThreshold {
		for i, f := range features {
			out[i] = g.encoding.encodeRegion(f)
		}
		return out
	}

	var wg sync.WaitGroup
	for i := range features {
		wg.Add(1)
		id := i
		g.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				out[id] = g.encoding.encodeRegion(features[id])
				return nil, nil
			},
		})
	}
	wg.Wait()
	return out
}

func (g *globeImpl) SetArcs(arcs []ArcSegment) []Diagnostic {
	kept := make([]ArcSegment, 0, len(arcs))
	var diags []Diagnostic
	for i, a := range arcs {
		if reason := validateArc(a); reason != "" {
			diags = append(diags, Diagnostic{Kind: DiagnosticArc, Index: i, ID: a.ID, Reason: reason})
			continue
		}
		kept = append(kept, a)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].OrderIndex < kept[j].OrderIndex
	})

	g.mu.Lock()
	g.arcs = kept
	g.mu.Unlock()

	g.report(DiagnosticArc, diags)
	return diags
}

func (g *globeImpl) Arcs() []ArcSegment {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ArcSegment, len(g.arcs))
	copy(out, g.arcs)
	return out
}

func (g *globeImpl) SetMarkers(markers []Marker) []Diagnostic {
	kept := make([]Marker, 0, len(markers))
	var diags []Diagnostic
	for i, m := range markers {
		if reason := validateMarker(m); reason != "" {
			diags = append(diags, Diagnostic{Kind: DiagnosticMarker, Index: i, ID: m.ID, Reason: reason})
			continue
		}
		kept = append(kept, m)
	}

	g.mu.Lock()
	g.markers = kept
	g.mu.Unlock()

	g.report(DiagnosticMarker, diags)
	return diags
}

func (g *globeImpl) Markers() []Marker {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Marker, len(g.markers))
	copy(out, g.markers)
	return out
}

// report logs and counts dropped input items.
func (g *globeImpl) report(kind string, diags []Diagnostic) {
	if len(diags) == 0 {
		return
	}
	for _, d := range diags {
		g.logger.Warn(context.Background(), "dropped invalid "+kind,
			logging.Int("index", d.Index),
			logging.String("id", d.ID),
			logging.String("reason", d.Reason),
		)
	}
	g.metrics.Rejected(kind, len(diags))
}

func (g *globeImpl) Renderables() Renderables {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := Renderables{
		Elapsed: g.elapsed,
		Regions: make([]RegionRenderable, len(g.index.features)),
		Arcs:    make([]ArcRenderable, len(g.arcs)),
		Markers: make([]MarkerRenderable, len(g.markers)),
	}
	for i, f := range g.index.features {
		r.Regions[i] = RegionRenderable{
			ISOCode:  f.ISOCode,
			Color:    g.encodings[i].color,
			Altitude: g.encodings[i].altitude,
			Hovered:  f.ISOCode == g.hoveredISO,
			Selected: f.ISOCode == g.selectedISO,
		}
	}
	for i, a := range g.arcs {
		r.Arcs[i] = ArcRenderable{
			Arc:        a,
			Style:      g.encoding.ArcStyle(a),
			DashOffset: g.encoding.DashOffset(g.elapsed, a.OrderIndex),
		}
	}
	for i, m := range g.markers {
		color := m.Color
		if color.A <= 0 {
			color = g.encoding.MarkerColor
		}
		r.Markers[i] = MarkerRenderable{
			Marker:   m,
			Position: GeoToCartesian(m.Coordinate.Lat, m.Coordinate.Lng, m.Altitude, g.radius),
			Color:    color,
			Size:     common.FirstPositive(m.Size, g.encoding.MarkerSize),
		}
	}
	return r
}

// --- pointer resolution ---

// surfaceAt picks the sphere under a viewport position.
// onSurface is false when the ray misses; ok is false when the inverse mapping fails.
func (g *globeImpl) surfaceAt(x, y float64) (c GeoCoordinate, onSurface, ok bool) {
	if g.picker == nil {
		return GeoCoordinate{}, false, false
	}
	for _, hit := range g.picker.Pick(x, y, []game_object.GameObject{g.object}) {
		if hit.Object.ID() != g.object.ID() {
			continue
		}
		c, ok = CartesianToGeo(hit.Point, g.radius)
		return c, true, ok
	}
	return GeoCoordinate{}, false, true
}

func (g *globeImpl) HandlePointerMove(x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pointer = common.ScreenPoint{X: x, Y: y}
	g.pointerInside = true
}

func (g *globeImpl) HandlePointerLeave() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pointerInside = false
}

func (g *globeImpl) Update(info common.FrameInfo) {
	g.mu.Lock()
	g.elapsed = info.ElapsedTime
	pointer, inside := g.pointer, g.pointerInside
	g.mu.Unlock()

	if g.interaction != nil && g.interaction.Dragging() {
		return
	}

	var (
		c  GeoCoordinate
		on bool
		ok = true
	)
	if inside {
		c, on, ok = g.surfaceAt(pointer.X, pointer.Y)
	}
	if !ok {
		return
	}

	g.mu.Lock()
	var hovered, previous *RegionFeature
	next := ""
	if on {
		if i, found := g.index.lookup(c); found {
			f := g.index.features[i]
			hovered = &f
			next = f.ISOCode
		}
	}
	switch {
	case next == g.hoveredISO:
		hovered = nil
	case next == "":
		prev := RegionFeature{ISOCode: g.hoveredISO}
		if i, found := g.index.find(g.hoveredISO); found {
			prev = g.index.features[i]
		}
		previous = &prev
	}
	g.hoveredISO = next
	g.mu.Unlock()

	switch {
	case hovered != nil:
		record, _ := g.lookupRecord(*hovered, c)
		g.emit([]outgoing{{eventbus.TopicRegionHovered, RegionPayload{Region: *hovered, Record: record, ISOCode: next}}})
	case previous != nil:
		g.emit([]outgoing{{eventbus.TopicRegionHoverEnd, HoverEndPayload{PreviousRegion: *previous}}})
	}
}

func (g *globeImpl) HandleClick(x, y float64) {
	c, on, ok := g.surfaceAt(x, y)
	if !on || !ok {
		return
	}
	f, found := g.RegionAt(c)
	if !found {
		return
	}

	record, hasRecord := g.lookupRecord(f, c)
	if !hasRecord {
		g.emit([]outgoing{{eventbus.TopicRegionNoData, NoDataPayload{Region: f, ISOCode: f.ISOCode}}})
		return
	}

	g.mu.Lock()
	g.selectedISO = f.ISOCode
	g.mu.Unlock()

	g.emit([]outgoing{{eventbus.TopicRegionClicked, RegionPayload{Region: f, Record: record, ISOCode: f.ISOCode}}})
	g.FocusRegion(f.ISOCode)
}

// lookupRecord tries the region code first, then the clicked coordinate.
func (g *globeImpl) lookupRecord(f RegionFeature, c GeoCoordinate) (Record, bool) {
	if g.records == nil {
		return nil, false
	}
	if r, ok := g.records.RegionRecord(f.ISOCode); ok {
		return r, true
	}
	return g.records.RegionRecordByCoordinate(c.Lat, c.Lng)
}

func (g *globeImpl) FocusRegion(isoCode string) bool {
	f, ok := g.Region(isoCode)
	if !ok {
		g.logger.Warn(context.Background(), "focus requested for unknown region", logging.String("isoCode", isoCode))
		return false
	}
	if g.animator == nil {
		g.logger.Warn(context.Background(), "focus requested without a camera animator", logging.String("isoCode", isoCode))
		return false
	}

	center := f.FocusCenter()
	target := GeoToCartesian(center.Lat, center.Lng, g.focusDistance-1, g.radius)
	g.animator.AnimateTo(target, mgl64.Vec3{}, g.focusDuration)

	g.emit([]outgoing{{eventbus.TopicRegionFocused, FocusPayload{
		ISOCode:      isoCode,
		Coordinate:   center,
		CameraTarget: target,
	}}})
	return true
}

func (g *globeImpl) SelectRegion(isoCode string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.index.find(isoCode); !ok {
		return false
	}
	g.selectedISO = isoCode
	return true
}

func (g *globeImpl) ClearSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selectedISO = ""
}

func (g *globeImpl) setInteracting(interacting bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.interacting = interacting
}

func (g *globeImpl) InteractionState() InteractionState {
	g.mu.Lock()
	state := InteractionState{Interacting: g.interacting}
	if i, ok := g.index.find(g.hoveredISO); ok {
		f := g.index.features[i]
		state.Hovered = &f
	}
	if i, ok := g.index.find(g.selectedISO); ok {
		f := g.index.features[i]
		state.Selected = &f
	}
	g.mu.Unlock()

	if g.interaction != nil {
		state.Interacting = g.interaction.Interacting()
		state.Dragging = g.interaction.Dragging()
	}
	return state
}

func (g *globeImpl) emit(events []outgoing) {
	if g.bus == nil {
		return
	}
	for _, e := range events {
		g.bus.Publish(e.topic, e.payload)
	}
}

func (g *globeImpl) Close() {
	if g.bus == nil {
		return
	}
	for _, id := range g.subIDs {
		g.bus.Unsubscribe(id)
	}
	g.subIDs = nil
}
