package harness

import (
	"sync"
	"time"

	"tatte-go/internal/utils"
	"tatte-go/tatte"
)

// Violation is a contract breach observed in an implementation's output.
type Violation struct {
	Subject   string `json:"subject"`
	Operation string `json:"operation"`
	Message   string `json:"message"`
}

// Phase summarises one harness phase.
type Phase struct {
	Name      string         `json:"name"`
	Started   time.Time      `json:"started"`
	Duration  time.Duration  `json:"duration_ns"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Codes     map[string]int `json:"codes"`
}

func (p *Phase) record(st tatte.ReturnStatus) {
	p.Codes[st.Code.String()]++
	if st.OK() {
		p.Succeeded++
	}
}

// Report is the outcome of a harness run.
type Report struct {
	mu         sync.Mutex
	RunID      string             `json:"run_id"`
	Engine     string             `json:"engine"`
	APIVersion string             `json:"api_version"`
	Phases     []*Phase           `json:"phases"`
	Violations []Violation        `json:"violations"`
	Stats      *utils.SystemStats `json:"stats,omitempty"`
}

func (r *Report) begin(name string, total int) *Phase {
	p := &Phase{Name: name, Started: time.Now(), Total: total, Codes: make(map[string]int)}
	r.mu.Lock()
	r.Phases = append(r.Phases, p)
	r.mu.Unlock()
	return p
}

func (r *Report) violate(subject, op string, messages ...string) {
	if len(messages) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range messages {
		r.Violations = append(r.Violations, Violation{Subject: subject, Operation: op, Message: m})
	}
}

// Phase returns the most recent phase called name, or nil.
func (r *Report) Phase(name string) *Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Phases) - 1; i >= 0; i-- {
		if r.Phases[i].Name == name {
			return r.Phases[i]
		}
	}
	return nil
}

// ViolationCount returns the number of violations recorded so far.
func (r *Report) ViolationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Violations)
}
