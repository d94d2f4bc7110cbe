// Package dataset holds the loaded observation series in memory together
// with lazily computed derived data (annotated series and seasonal
// profiles). Derivations are cached per city and invalidated whenever
// the series is replaced, so repeated API calls do not recompute.
package dataset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tempwatch/tempwatch/internal/analysis"
	"github.com/tempwatch/tempwatch/internal/types"
)

// Store is a snapshot of the observation series plus cached derivations.
// All methods are safe for concurrent use. Returned slices and maps are
// owned by the store and must not be modified by callers.
type Store struct {
	rollingOpts analysis.RollingOptions

	mu              sync.RWMutex
	series          map[string][]types.Observation
	annotated       map[string][]types.AnnotatedObservation
	rawProfiles     map[string]map[types.Season]types.SeasonalBaseline
	rollingProfiles map[string]map[types.Season]types.SeasonalBaseline
}

// New creates an empty store. The rolling options apply to every
// derivation until the process restarts.
func New(rollingOpts analysis.RollingOptions) *Store {
	s := &Store{rollingOpts: rollingOpts}
	s.reset(nil)
	return s
}

// Replace swaps in a new observation series atomically and drops every
// cached derivation.
func (s *Store) Replace(series map[string][]types.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(series)
}

func (s *Store) reset(series map[string][]types.Observation) {
	if series == nil {
		series = make(map[string][]types.Observation)
	}
	s.series = series
	s.annotated = make(map[string][]types.AnnotatedObservation)
	s.rawProfiles = make(map[string]map[types.Season]types.SeasonalBaseline)
	s.rollingProfiles = make(map[string]map[types.Season]types.SeasonalBaseline)
}

// Cities returns the city names present in the dataset, sorted.
func (s *Store) Cities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cities := make([]string, 0, len(s.series))
	for city := range s.series {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

// Observations returns one city's time-ordered series.
func (s *Store) Observations(city string) ([]types.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obs, ok := s.series[city]
	if !ok {
		return nil, unknownCity(city)
	}
	return obs, nil
}

// Annotated returns one city's series with rolling statistics and
// anomaly flags attached, computing and caching it on first use.
func (s *Store) Annotated(city string) ([]types.AnnotatedObservation, error) {
	s.mu.RLock()
	cached, ok := s.annotated[city]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.annotated[city]; ok {
		return cached, nil
	}
	obs, ok := s.series[city]
	if !ok {
		return nil, unknownCity(city)
	}

	annotated := analysis.Annotate(obs, s.rollingOpts)
	s.annotated[city] = annotated
	return annotated, nil
}

// Profile returns one city's season-to-baseline mapping for the given
// baseline source, computing and caching it on first use.
func (s *Store) Profile(city string, source analysis.BaselineSource) (map[types.Season]types.SeasonalBaseline, error) {
	if source == analysis.BaselineRolling {
		return s.rollingProfile(city)
	}
	return s.rawProfile(city)
}

func (s *Store) rawProfile(city string) (map[types.Season]types.SeasonalBaseline, error) {
	s.mu.RLock()
	cached, ok := s.rawProfiles[city]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.rawProfiles[city]; ok {
		return cached, nil
	}
	obs, ok := s.series[city]
	if !ok {
		return nil, unknownCity(city)
	}

	profile := analysis.SeasonalProfile(obs)
	s.rawProfiles[city] = profile
	return profile, nil
}

func (s *Store) rollingProfile(city string) (map[types.Season]types.SeasonalBaseline, error) {
	s.mu.RLock()
	cached, ok := s.rollingProfiles[city]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.rollingProfiles[city]; ok {
		return cached, nil
	}

	// The rolling profile derives from the annotated series; fill that
	// cache first if a Replace cleared it.
	annotated, ok := s.annotated[city]
	if !ok {
		obs, found := s.series[city]
		if !found {
			return nil, unknownCity(city)
		}
		annotated = analysis.Annotate(obs, s.rollingOpts)
		s.annotated[city] = annotated
	}

	profile := analysis.RollingSeasonalProfile(annotated)
	s.rollingProfiles[city] = profile
	return profile, nil
}

func unknownCity(city string) error {
	return fmt.Errorf("%w: no observations for city %q", analysis.ErrInsufficientData, city)
}
