package server

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/aristath/freightwatch/internal/events"
	"github.com/aristath/freightwatch/internal/state"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	store       *state.Store
	events      *events.Manager
	cities      CityCounter
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	Goroutines    int     `json:"goroutines"`
	Operators     int     `json:"operators"`
	AutoUpdateOn  int     `json:"auto_update_on"`
	Bootstrapped  int     `json:"bootstrapped"`
	KnownCities   int     `json:"known_cities"`
}

// NewSystemHandlers creates the system handlers. cities may be nil.
func NewSystemHandlers(store *state.Store, emitter *events.Manager, cities CityCounter, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		store:       store,
		events:      emitter,
		cities:      cities,
	}
}

// HandleSystemStatus returns process and operator health
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
	}

	for _, snap := range h.store.Snapshots() {
		response.Operators++
		if snap.AutoUpdate {
			response.AutoUpdateOn++
		}
		if snap.Phase == state.Initialized.String() {
			response.Bootstrapped++
		}
	}
	if h.cities != nil {
		response.KnownCities = h.cities.Len()
	}

	writeJSON(w, http.StatusOK, response, h.log)
}

// HandleEvents returns recent cycle events, newest first
// GET /api/events?limit=50
func (h *SystemHandlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", h.log)
			return
		}
		limit = parsed
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": h.events.Recent(limit),
	}, h.log)
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short sampling interval so the endpoint stays fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
