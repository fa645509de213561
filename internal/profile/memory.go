package profile

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and as a stand-in when no
// database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*SiteProfile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]*SiteProfile)}
}

// Insert stores a copy of the profile keyed by its ID.
func (m *MemoryStore) Insert(p *SiteProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

// GetByID returns the profile with the given ID.
func (m *MemoryStore) GetByID(id string) (*SiteProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByDomain returns the highest-confidence, most recently used profile
// for a domain.
func (m *MemoryStore) GetByDomain(domain string) (*SiteProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *SiteProfile
	for _, p := range m.profiles {
		if p.Domain != domain {
			continue
		}
		if best == nil ||
			p.Confidence > best.Confidence ||
			(p.Confidence == best.Confidence && p.LastUsed.After(best.LastUsed)) {
			best = p
		}
	}

	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// GetAll returns every profile ordered by confidence, then recency.
func (m *MemoryStore) GetAll() ([]*SiteProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*SiteProfile, 0, len(m.profiles))
	for _, p := range m.profiles {
		cp := *p
		out = append(out, &cp)
	}
	sortProfiles(out)
	return out, nil
}

// GetByMode returns the profiles with a given extraction mode.
func (m *MemoryStore) GetByMode(mode string) ([]*SiteProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*SiteProfile
	for _, p := range m.profiles {
		if p.ExtractionMode == mode {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortProfiles(out)
	return out, nil
}

// UpdateUsage applies one feedback observation to a stored profile.
func (m *MemoryStore) UpdateUsage(id string, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return ErrNotFound
	}
	p.ApplyFeedback(success)
	return nil
}

// Delete removes one profile.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(m.profiles, id)
	return nil
}

// ClearAll removes every profile.
func (m *MemoryStore) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles = make(map[string]*SiteProfile)
	return nil
}

// Stats aggregates counts and averages over all profiles.
func (m *MemoryStore) Stats() (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{TotalProfiles: len(m.profiles)}
	if stats.TotalProfiles == 0 {
		return stats, nil
	}

	var confSum, rateSum float64
	for _, p := range m.profiles {
		stats.TotalUses += p.UseCount
		confSum += p.Confidence
		rateSum += p.SuccessRate
	}
	stats.AvgConfidence = confSum / float64(stats.TotalProfiles)
	stats.AvgSuccessRate = rateSum / float64(stats.TotalProfiles)
	return stats, nil
}

func sortProfiles(profiles []*SiteProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Confidence != profiles[j].Confidence {
			return profiles[i].Confidence > profiles[j].Confidence
		}
		return profiles[i].LastUsed.After(profiles[j].LastUsed)
	})
}
