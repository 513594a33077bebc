package globe

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Record is the externally supplied data attached to a region.
type Record map[string]any

// RecordSource resolves region records. Implementations are owned by the data layer.
type RecordSource interface {
	// RegionRecord returns the record stored for a region code.
	RegionRecord(isoCode string) (Record, bool)

	// RegionRecordByCoordinate returns the record stored nearest to a coordinate,
	// for sources keyed by location rather than region.
	RegionRecordByCoordinate(lat, lng float64) (Record, bool)
}

// MapRecordSource is an in-memory RecordSource keyed by region code.
// Coordinate lookups match records placed with PutAt within their radius in degrees.
type MapRecordSource struct {
	mu      sync.RWMutex
	byISO   map[string]Record
	located []locatedRecord
}

type locatedRecord struct {
	at     GeoCoordinate
	radius float64
	record Record
}

var _ RecordSource = &MapRecordSource{}

// NewMapRecordSource creates a source seeded with records by region code.
func NewMapRecordSource(records map[string]Record) *MapRecordSource {
	s := &MapRecordSource{byISO: make(map[string]Record, len(records))}
	for iso, r := range records {
		s.byISO[iso] = r
	}
	return s
}

// Put stores or replaces the record for a region code.
func (s *MapRecordSource) Put(isoCode string, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byISO[isoCode] = r
}

// PutAt stores a record found by coordinate lookups within radius degrees of at.
func (s *MapRecordSource) PutAt(at GeoCoordinate, radius float64, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.located = append(s.located, locatedRecord{at: at, radius: radius, record: r})
}

// Delete removes the record for a region code.
func (s *MapRecordSource) Delete(isoCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byISO, isoCode)
}

func (s *MapRecordSource) RegionRecord(isoCode string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byISO[isoCode]
	return r, ok
}

func (s *MapRecordSource) RegionRecordByCoordinate(lat, lng float64) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	here := GeoCoordinate{Lat: lat, Lng: lng}
	best, bestAngle := -1, 0.0
	for i, lr := range s.located {
		angle := mgl64.RadToDeg(CentralAngle(here, lr.at))
		if angle <= lr.radius && (best < 0 || angle < bestAngle) {
			best, bestAngle = i, angle
		}
	}
	if best < 0 {
		return nil, false
	}
	return s.located[best].record, true
}
