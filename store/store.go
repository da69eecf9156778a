package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"solarquote/models"
)

var (
	ErrNotFound       = errors.New("utility not found")
	ErrDuplicate      = errors.New("utility already exists")
	ErrInvalidUtility = errors.New("invalid utility")
)

const storeDataVersion = 1

// DefaultBaseCost is the fixed monthly charge assumed when a utility does
// not publish one.
const DefaultBaseCost = 10.0

var zipPattern = regexp.MustCompile(`^\d{5}$`)

type UtilityFilter struct {
	State   string
	Utility string
}

type UtilityInput struct {
	ZipCode         string
	UtilityName     string
	CompanyID       string
	UtilityType     string
	State           string
	ElectricityRate float64
	BaseCost        *float64
}

type storeEnvelope struct {
	Version   int                  `json:"version"`
	Utilities []models.UtilityRate `json:"utilities"`
}

type Store struct {
	mu        sync.RWMutex
	filePath  string
	utilities []models.UtilityRate
	nowFn     func() time.Time
}

func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, emptyStoreEnvelopeJSON(), 0o644); err != nil {
			return nil, fmt.Errorf("initialize data file: %w", err)
		}
	}

	s := &Store{filePath: path, nowFn: time.Now}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("read data file: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) == 0 {
		s.utilities = []models.UtilityRate{}
		return nil
	}

	loadedLegacyFormat := false
	switch trimmed[0] {
	case '[':
		var utilities []models.UtilityRate
		if err := json.Unmarshal(data, &utilities); err != nil {
			return fmt.Errorf("parse legacy data file: %w", err)
		}
		s.utilities = utilities
		loadedLegacyFormat = true
	case '{':
		var envelope storeEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("parse data file envelope: %w", err)
		}
		if envelope.Version > storeDataVersion {
			return fmt.Errorf("parse data file: unsupported version %d", envelope.Version)
		}
		s.utilities = envelope.Utilities
	default:
		return fmt.Errorf("parse data file: unsupported JSON format")
	}
	if s.utilities == nil {
		s.utilities = []models.UtilityRate{}
	}
	normalizeUtilities(s.utilities)
	if loadedLegacyFormat {
		if err := s.persistLocked(s.utilities); err != nil {
			return fmt.Errorf("migrate legacy data file: %w", err)
		}
	}
	return nil
}

func (s *Store) List(filter UtilityFilter) []models.UtilityRate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := normalizeState(filter.State)
	name := strings.ToLower(strings.TrimSpace(filter.Utility))
	result := make([]models.UtilityRate, 0, len(s.utilities))
	for _, utility := range s.utilities {
		if state != "" && utility.State != state {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(utility.UtilityName), name) {
			continue
		}
		result = append(result, utility)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ZipCode < result[j].ZipCode
	})
	return result
}

func (s *Store) Get(zip string) (models.UtilityRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zip = strings.TrimSpace(zip)
	for _, utility := range s.utilities {
		if utility.ZipCode == zip {
			return utility, nil
		}
	}
	return models.UtilityRate{}, ErrNotFound
}

func (s *Store) Create(input UtilityInput) (models.UtilityRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	utility, err := utilityFromInput(input)
	if err != nil {
		return models.UtilityRate{}, err
	}
	if s.indexLocked(utility.ZipCode) >= 0 {
		return models.UtilityRate{}, fmt.Errorf("%w: zip %s", ErrDuplicate, utility.ZipCode)
	}
	now := s.nowFn().UTC()
	utility.CreatedAt = now
	utility.UpdatedAt = now

	next := append(slices.Clone(s.utilities), utility)
	if err := s.persistLocked(next); err != nil {
		return models.UtilityRate{}, err
	}
	s.utilities = next
	return utility, nil
}

// Update replaces the entry for zip. The ZIP code itself cannot change.
func (s *Store) Update(zip string, input UtilityInput) (models.UtilityRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(strings.TrimSpace(zip))
	if i < 0 {
		return models.UtilityRate{}, ErrNotFound
	}
	existing := s.utilities[i]
	input.ZipCode = existing.ZipCode
	updated, err := utilityFromInput(input)
	if err != nil {
		return models.UtilityRate{}, err
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = s.nowFn().UTC()
	next := slices.Clone(s.utilities)
	next[i] = updated
	if err := s.persistLocked(next); err != nil {
		return models.UtilityRate{}, err
	}
	s.utilities = next
	return updated, nil
}

// Upsert creates or replaces entries in one write. It is used to seed the
// table from configuration.
func (s *Store) Upsert(inputs ...UtilityInput) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn().UTC()
	next := slices.Clone(s.utilities)
	changed := 0
	for _, input := range inputs {
		utility, err := utilityFromInput(input)
		if err != nil {
			return 0, err
		}
		utility.UpdatedAt = now
		if i := indexOf(next, utility.ZipCode); i >= 0 {
			utility.CreatedAt = next[i].CreatedAt
			next[i] = utility
		} else {
			utility.CreatedAt = now
			next = append(next, utility)
		}
		changed++
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.persistLocked(next); err != nil {
		return 0, err
	}
	s.utilities = next
	return changed, nil
}

func (s *Store) Delete(zip string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(strings.TrimSpace(zip))
	if i < 0 {
		return ErrNotFound
	}
	next := slices.Delete(slices.Clone(s.utilities), i, i+1)
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.utilities = next
	return nil
}

func (s *Store) Stats() models.UtilityStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.UtilityStats{
		TotalUtilities: len(s.utilities),
		ByState:        []models.StateRate{},
	}
	if len(s.utilities) == 0 {
		return stats
	}

	rates := make([]float64, 0, len(s.utilities))
	bases := make([]float64, 0, len(s.utilities))
	stateRates := map[string][]float64{}
	stateBases := map[string][]float64{}
	for _, utility := range s.utilities {
		rates = append(rates, utility.ElectricityRate)
		bases = append(bases, utility.BaseCost)
		stateRates[utility.State] = append(stateRates[utility.State], utility.ElectricityRate)
		stateBases[utility.State] = append(stateBases[utility.State], utility.BaseCost)
	}
	stats.AverageRate = stat.Mean(rates, nil)
	stats.AverageBaseCost = stat.Mean(bases, nil)

	for state, values := range stateRates {
		stats.ByState = append(stats.ByState, models.StateRate{
			State:       state,
			Utilities:   len(values),
			AverageRate: stat.Mean(values, nil),
			AverageBase: stat.Mean(stateBases[state], nil),
		})
	}
	sort.Slice(stats.ByState, func(i, j int) bool {
		if stats.ByState[i].AverageRate != stats.ByState[j].AverageRate {
			return stats.ByState[i].AverageRate > stats.ByState[j].AverageRate
		}
		return stats.ByState[i].State < stats.ByState[j].State
	})
	return stats
}

func (s *Store) indexLocked(zip string) int {
	return indexOf(s.utilities, zip)
}

func indexOf(utilities []models.UtilityRate, zip string) int {
	return slices.IndexFunc(utilities, func(u models.UtilityRate) bool {
		return u.ZipCode == zip
	})
}

// persistLocked writes utilities to disk. Callers swap s.utilities only
// after it succeeds, so a failed write leaves memory and file in agreement.
func (s *Store) persistLocked(utilities []models.UtilityRate) error {
	envelope := storeEnvelope{
		Version:   storeDataVersion,
		Utilities: utilities,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal data: %w", err)
	}
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func utilityFromInput(input UtilityInput) (models.UtilityRate, error) {
	zip := strings.TrimSpace(input.ZipCode)
	if !zipPattern.MatchString(zip) {
		return models.UtilityRate{}, fmt.Errorf("%w: zip code must be 5 digits, got %q", ErrInvalidUtility, input.ZipCode)
	}
	name := strings.TrimSpace(input.UtilityName)
	if name == "" {
		return models.UtilityRate{}, fmt.Errorf("%w: utility name is required", ErrInvalidUtility)
	}
	if math.IsNaN(input.ElectricityRate) || math.IsInf(input.ElectricityRate, 0) || input.ElectricityRate <= 0 {
		return models.UtilityRate{}, fmt.Errorf("%w: electricity rate must be greater than zero", ErrInvalidUtility)
	}
	base := DefaultBaseCost
	if input.BaseCost != nil {
		base = *input.BaseCost
	}
	if math.IsNaN(base) || math.IsInf(base, 0) || base < 0 {
		return models.UtilityRate{}, fmt.Errorf("%w: base cost must not be negative", ErrInvalidUtility)
	}

	companyID := strings.TrimSpace(input.CompanyID)
	if companyID == "" {
		companyID = "unknown"
	}
	utilityType := strings.TrimSpace(input.UtilityType)
	if utilityType == "" {
		utilityType = "Electric"
	}
	return models.UtilityRate{
		ZipCode:         zip,
		UtilityName:     name,
		CompanyID:       companyID,
		UtilityType:     utilityType,
		State:           normalizeState(input.State),
		ElectricityRate: input.ElectricityRate,
		BaseCost:        base,
	}, nil
}

func normalizeUtilities(utilities []models.UtilityRate) {
	for i := range utilities {
		utilities[i].ZipCode = strings.TrimSpace(utilities[i].ZipCode)
		utilities[i].UtilityName = strings.TrimSpace(utilities[i].UtilityName)
		utilities[i].State = normalizeState(utilities[i].State)
	}
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

func emptyStoreEnvelopeJSON() []byte {
	data, err := json.MarshalIndent(storeEnvelope{
		Version:   storeDataVersion,
		Utilities: []models.UtilityRate{},
	}, "", "  ")
	if err != nil {
		return []byte("{}\n")
	}
	return append(data, '\n')
}
