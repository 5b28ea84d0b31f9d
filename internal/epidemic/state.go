package epidemic

import "fmt"

// Compartment is the SEIR state of a single node.
type Compartment uint8

const (
	Susceptible Compartment = iota
	Exposed
	Infectious
	Recovered
)

// String returns the compartment name.
func (c Compartment) String() string {
	switch c {
	case Susceptible:
		return "susceptible"
	case Exposed:
		return "exposed"
	case Infectious:
		return "infectious"
	case Recovered:
		return "recovered"
	default:
		return fmt.Sprintf("compartment(%d)", uint8(c))
	}
}

// NoGeneration marks a node that has never been infected.
const NoGeneration = -1

// NodeState is the epidemic state of one node.
type NodeState struct {
	Compartment Compartment `json:"compartment"`
	// Timer counts steps since infection. Zero while Susceptible.
	Timer int `json:"timer"`
	// Generation is the infection hop count from the seeds, or NoGeneration.
	Generation int `json:"generation"`
}

// Snapshot holds the compartment counts at the end of a step.
// Step 0 is the state right after seeding.
type Snapshot struct {
	Step        int `json:"step"`
	Susceptible int `json:"susceptible"`
	Exposed     int `json:"exposed"`
	Infectious  int `json:"infectious"`
	Recovered   int `json:"recovered"`
}

// Total returns S+E+I+R.
func (s Snapshot) Total() int {
	return s.Susceptible + s.Exposed + s.Infectious + s.Recovered
}

// Active returns the number of Exposed and Infectious nodes.
func (s Snapshot) Active() int {
	return s.Exposed + s.Infectious
}

// Peak records the step at which a count first reached its maximum and the
// attack rate at that moment.
type Peak struct {
	Count      int     `json:"count"`
	Step       int     `json:"step"`
	AttackRate float64 `json:"attack_rate"`
}

// StepPeak records the largest per-step value of a counter and when it occurred.
type StepPeak struct {
	Count int `json:"count"`
	Step  int `json:"step"`
}

// Tally accumulates infection attempts and the running peaks tracked during stepping.
type Tally struct {
	TotalAttempted int      `json:"total_attempted"`
	TotalActual    int      `json:"total_actual"`
	PeakInfected   Peak     `json:"peak_infected"`
	PeakInfectious Peak     `json:"peak_infectious"`
	PeakAttempted  StepPeak `json:"peak_attempted"`
	PeakActual     StepPeak `json:"peak_actual"`
}

// StepCounts are the infection attempts made during a single step, split by channel.
type StepCounts struct {
	ContactAttempted int `json:"contact_attempted"`
	ContactActual    int `json:"contact_actual"`
	RandomAttempted  int `json:"random_attempted"`
	RandomActual     int `json:"random_actual"`
}

// Attempted returns all attempts in the step.
func (c StepCounts) Attempted() int {
	return c.ContactAttempted + c.RandomAttempted
}

// Actual returns all successful infections in the step.
func (c StepCounts) Actual() int {
	return c.ContactActual + c.RandomActual
}
