package storage

import (
	"sync"
	"time"
)

// Health is the recent track record of one engine.
type Health struct {
	Status      string    `json:"status"`
	LastCheck   time.Time `json:"last_check"`
	Stored      int       `json:"stored"`
	Failed      int       `json:"failed"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at,omitempty"`
}

// HealthManager keeps an in-memory Health per engine name.
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]*Health
}

// NewHealthManager creates an empty health manager.
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]*Health),
	}
}

// Observe records the outcome of one store on engine.
func (hm *HealthManager) Observe(engine string, err error) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	h, ok := hm.health[engine]
	if !ok {
		h = &Health{}
		hm.health[engine] = h
	}
	h.LastCheck = time.Now()
	if err != nil {
		h.Failed++
		h.Status = "unhealthy"
		h.LastError = err.Error()
		h.LastErrorAt = h.LastCheck
		return
	}
	h.Stored++
	h.Status = "healthy"
}

// GetHealth returns a copy of the health of engine.
func (hm *HealthManager) GetHealth(engine string) (Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	h, ok := hm.health[engine]
	if !ok {
		return Health{}, false
	}
	return *h, true
}

// GetAllHealth returns a copy of every engine's health.
func (hm *HealthManager) GetAllHealth() map[string]Health {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]Health, len(hm.health))
	for k, v := range hm.health {
		result[k] = *v
	}
	return result
}

// IsHealthy reports whether the last store on engine succeeded within maxAge.
func (hm *HealthManager) IsHealthy(engine string, maxAge time.Duration) bool {
	h, ok := hm.GetHealth(engine)
	if !ok {
		return false
	}
	if time.Since(h.LastCheck) > maxAge {
		return false
	}
	return h.Status == "healthy"
}
