package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Probe checks whether one component can currently do its job. Probes run
// on every health request, so they must stay cheap: a store ping, a queue
// bucket check, a state read. Never a full domain operation.
type Probe func() error

// criticalProbes name the components readiness requires. The pipeline
// cannot apply a single fact without its state store and its transport.
var criticalProbes = []string{"store", "broker"}

// HealthStatus is the JSON body served on the health endpoints
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Message    string            `json:"message,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
}

type probeSet struct {
	mu        sync.RWMutex
	probes    map[string]Probe
	version   string
	startTime time.Time
}

var health = &probeSet{
	probes:    make(map[string]Probe),
	startTime: time.Now(),
}

// SetVersion sets the version string reported on health responses
func SetVersion(version string) {
	health.mu.Lock()
	defer health.mu.Unlock()
	health.version = version
}

// RegisterProbe attaches a live health check for a component.
// Re-registering a name replaces its probe.
func RegisterProbe(name string, p Probe) {
	health.mu.Lock()
	defer health.mu.Unlock()
	health.probes[name] = p
}

// snapshot copies the probe map so probes run outside the lock; a slow
// probe must not block registration
func (s *probeSet) snapshot() (map[string]Probe, string, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	probes := make(map[string]Probe, len(s.probes))
	for name, p := range s.probes {
		probes[name] = p
	}
	return probes, s.version, time.Since(s.startTime)
}

// GetHealth runs every registered probe. Any failing probe marks the
// process unhealthy.
func GetHealth() HealthStatus {
	probes, version, uptime := health.snapshot()

	status := "healthy"
	components := make(map[string]string, len(probes))
	for name, probe := range probes {
		if err := probe(); err != nil {
			status = "unhealthy"
			components[name] = "unhealthy: " + err.Error()
		} else {
			components[name] = "healthy"
		}
	}

	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
		Version:    version,
		Uptime:     uptime.String(),
	}
}

// GetReadiness runs only the critical probes. A component that has not
// registered its probe yet counts as not ready, which keeps traffic away
// during startup ordering.
func GetReadiness() HealthStatus {
	probes, version, uptime := health.snapshot()

	status := "ready"
	message := ""
	components := make(map[string]string, len(criticalProbes))
	for _, name := range criticalProbes {
		probe, registered := probes[name]
		if !registered {
			status = "not_ready"
			message = "waiting for " + name + " initialization"
			components[name] = "not registered"
			continue
		}
		if err := probe(); err != nil {
			status = "not_ready"
			message = name + " failing"
			components[name] = "not ready: " + err.Error()
			continue
		}
		components[name] = "ready"
	}

	return HealthStatus{
		Status:     status,
		Timestamp:  time.Now(),
		Components: components,
		Message:    message,
		Version:    version,
		Uptime:     uptime.String(),
	}
}

func writeStatus(w http.ResponseWriter, body HealthStatus, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler serves /health from the full probe set
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := GetHealth()
		writeStatus(w, body, body.Status == "healthy")
	}
}

// ReadyHandler serves /ready from the critical probes only
func ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := GetReadiness()
		writeStatus(w, body, body.Status == "ready")
	}
}

// LivenessHandler serves /live; reaching it at all proves the process runs
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, uptime := health.snapshot()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "alive",
			"uptime": uptime.String(),
		})
	}
}
