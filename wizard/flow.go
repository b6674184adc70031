// CLAUDE:SUMMARY Explicit finite state machine for the web wizard: states, legal transitions, per-flow data.
// Package wizard hosts the multi-step web extraction flow: paste a URL,
// watch charts get detected, pick one, extract, view and download the
// results. Each visitor flow is a small state machine; the HTTP layer
// only translates requests into transitions.
package wizard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hovertable/hovertable/hover"
	"github.com/hovertable/hovertable/idgen"
	"github.com/hovertable/hovertable/pivot"
	"github.com/hovertable/hovertable/tipparse"
)

// State is a wizard step.
type State string

const (
	StateAwaitingURL State = "awaiting_url"
	StatePageLoaded  State = "page_loaded"
	StateDetecting   State = "detecting"
	StateChartsFound State = "charts_found"
	StateExtracting  State = "extracting"
	StateResults     State = "results"
)

var (
	// ErrBadTransition means the requested step is not legal from the
	// flow's current state. The HTTP layer maps this to 409.
	ErrBadTransition = errors.New("wizard: illegal state transition")

	// ErrFlowNotFound means no flow exists with the given ID.
	ErrFlowNotFound = errors.New("wizard: flow not found")
)

// transitions lists the legal next states from each state. Results
// loops back to AwaitingURL (new page) and ChartsFound (another chart
// on the same page).
var transitions = map[State][]State{
	StateAwaitingURL: {StatePageLoaded},
	StatePageLoaded:  {StateDetecting, StateAwaitingURL},
	StateDetecting:   {StateChartsFound, StateAwaitingURL},
	StateChartsFound: {StateExtracting, StateAwaitingURL},
	StateExtracting:  {StateResults, StateChartsFound, StateAwaitingURL},
	StateResults:     {StateChartsFound, StateAwaitingURL},
}

// Flow is one visitor's progress through the wizard.
type Flow struct {
	ID    string
	State State

	URL      string
	Charts   []hover.Chart
	Selected int

	RawTips []string
	Batch   tipparse.Batch
	Table   *pivot.Table
	Excel   []byte

	LastError string

	mu sync.Mutex
}

// Step moves the flow to the next state, or returns ErrBadTransition.
func (f *Flow) Step(to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step(to)
}

func (f *Flow) step(to State) error {
	for _, legal := range transitions[f.State] {
		if legal == to {
			f.State = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrBadTransition, f.State, to)
}

// Reset returns the flow to AwaitingURL, clearing page-scoped data.
// Legal from any state; abandoning a page is always allowed.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.State = StateAwaitingURL
	f.URL = ""
	f.Charts = nil
	f.Selected = 0
	f.clearResults()
	f.LastError = ""
}

func (f *Flow) clearResults() {
	f.RawTips = nil
	f.Batch = tipparse.Batch{}
	f.Table = nil
	f.Excel = nil
}

// Flows is an in-memory flow registry.
type Flows struct {
	mu    sync.RWMutex
	byID  map[string]*Flow
	newID idgen.Generator
}

// NewFlows creates an empty registry.
func NewFlows() *Flows {
	return &Flows{
		byID:  make(map[string]*Flow),
		newID: idgen.Prefixed("flow_", idgen.NanoID(12)),
	}
}

// Create starts a new flow in AwaitingURL.
func (r *Flows) Create() *Flow {
	f := &Flow{ID: r.newID(), State: StateAwaitingURL}
	r.mu.Lock()
	r.byID[f.ID] = f
	r.mu.Unlock()
	return f
}

// Get retrieves a flow by ID.
func (r *Flows) Get(id string) (*Flow, error) {
	r.mu.RLock()
	f, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrFlowNotFound
	}
	return f, nil
}

// Delete removes a flow.
func (r *Flows) Delete(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}
