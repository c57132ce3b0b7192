package mocks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/atomic"

	"github.com/onflow/drand-fulfiller/model/drand"
	"github.com/onflow/drand-fulfiller/utils/unittest"
)

// RelayMode selects how a simulated relay answers.
type RelayMode int

const (
	// RelayHealthy serves correct beacons.
	RelayHealthy RelayMode = iota
	// RelayDown answers every request with 503.
	RelayDown
	// RelayHanging never answers until the client gives up.
	RelayHanging
	// RelayCorrupt serves beacons whose randomness does not match the signature.
	RelayCorrupt
	// RelayWrongRound serves the beacon of the next round.
	RelayWrongRound
)

// Relay is a simulated drand HTTP relay backed by httptest.
type Relay struct {
	*httptest.Server
	network *BeaconNetwork
	mu      sync.RWMutex
	mode    RelayMode
	hits    *atomic.Uint64
}

// NewRelay starts a relay serving the beacons of `network`. The relay is closed when the test ends.
func NewRelay(t testing.TB, network *BeaconNetwork) *Relay {
	r := &Relay{
		network: network,
		hits:    atomic.NewUint64(0),
	}

	router := mux.NewRouter()
	router.HandleFunc("/{chain}/info", r.serveInfo).Methods(http.MethodGet)
	router.HandleFunc("/{chain}/public/{round}", r.serveRound).Methods(http.MethodGet)
	r.Server = httptest.NewServer(router)
	t.Cleanup(r.Server.Close)
	return r
}

func (r *Relay) SetMode(mode RelayMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
}

// Hits returns the number of requests received.
func (r *Relay) Hits() uint64 {
	return r.hits.Load()
}

func (r *Relay) currentMode() RelayMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// intercept handles the failure modes shared by every route. It returns true if the request was answered.
func (r *Relay) intercept(w http.ResponseWriter, req *http.Request) bool {
	r.hits.Inc()
	switch r.currentMode() {
	case RelayDown:
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return true
	case RelayHanging:
		<-req.Context().Done()
		return true
	}
	if mux.Vars(req)["chain"] != r.network.Info().HashString() {
		http.Error(w, "unknown chain", http.StatusNotFound)
		return true
	}
	return false
}

func (r *Relay) serveInfo(w http.ResponseWriter, req *http.Request) {
	if r.intercept(w, req) {
		return
	}
	writeJSON(w, r.network.Info())
}

func (r *Relay) serveRound(w http.ResponseWriter, req *http.Request) {
	if r.intercept(w, req) {
		return
	}

	param := mux.Vars(req)["round"]
	var round uint64
	if param == "latest" {
		round = r.network.LatestRound()
	} else {
		parsed, err := strconv.ParseUint(param, 10, 64)
		if err != nil {
			http.Error(w, "invalid round", http.StatusBadRequest)
			return
		}
		round = parsed
	}
	if round > r.network.LatestRound() {
		http.Error(w, "round not yet available", http.StatusNotFound)
		return
	}

	b := *r.network.Beacon(round)
	switch r.currentMode() {
	case RelayCorrupt:
		b.Randomness = unittest.RandomBytes(drand.RandomnessLength)
	case RelayWrongRound:
		b = *r.network.Beacon(round + 1)
	}
	writeJSON(w, &b)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
