package types

import (
	"fmt"
	"slices"

	sdkmath "cosmossdk.io/math"
)

// JobType enumerates the kinds of compute work a client can post.
type JobType uint8

const (
	JobTypeLLMInference JobType = iota
	JobTypeLLMFineTuning
	JobTypeRAGIndexing
	JobTypeVisionPipeline
	JobTypeRender
	JobTypeGenericCompute
)

var jobTypeNames = map[JobType]string{
	JobTypeLLMInference:   "llm_inference",
	JobTypeLLMFineTuning:  "llm_fine_tuning",
	JobTypeRAGIndexing:    "rag_indexing",
	JobTypeVisionPipeline: "vision_pipeline",
	JobTypeRender:         "render",
	JobTypeGenericCompute: "generic_compute",
}

func (t JobType) Valid() bool {
	_, ok := jobTypeNames[t]
	return ok
}

func (t JobType) String() string {
	if name, ok := jobTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("job_type(%d)", uint8(t))
}

func (t JobType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid job type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *JobType) UnmarshalText(text []byte) error {
	parsed, err := ParseJobType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseJobType resolves a job type name.
func ParseJobType(s string) (JobType, error) {
	for t, name := range jobTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, InputError(ErrInvalidJobType, "unknown job type %q", s)
}

// JobStatus is the lifecycle state of a job.
type JobStatus uint8

const (
	JobStatusPending JobStatus = iota
	JobStatusAssigned
	JobStatusCompleted
	JobStatusFailed
	JobStatusCancelled
)

var jobStatusNames = map[JobStatus]string{
	JobStatusPending:   "pending",
	JobStatusAssigned:  "assigned",
	JobStatusCompleted: "completed",
	JobStatusFailed:    "failed",
	JobStatusCancelled: "cancelled",
}

// jobTransitions is the complete set of legal job state transitions.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:  {JobStatusAssigned, JobStatusCancelled},
	JobStatusAssigned: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusPending},
}

func (s JobStatus) String() string {
	if name, ok := jobStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("job_status(%d)", uint8(s))
}

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return len(jobTransitions[s]) == 0
}

// CanTransitionTo reports whether s -> next is a legal transition.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s JobStatus) MarshalText() ([]byte, error) {
	name, ok := jobStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid job status %d", uint8(s))
	}
	return []byte(name), nil
}

func (s *JobStatus) UnmarshalText(text []byte) error {
	for status, name := range jobStatusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("invalid job status %q", text)
}

// Job is a client-posted unit of compute work.
type Job struct {
	JobID            string      `json:"job_id"`
	Client           PublicKey   `json:"client"`
	JobType          JobType     `json:"job_type"`
	Price            sdkmath.Int `json:"price"`
	EscrowFee        sdkmath.Int `json:"escrow_fee"`
	TimeoutSeconds   int64       `json:"timeout_seconds"`
	RequirementsHash string      `json:"requirements_hash"`
	Model            string      `json:"model,omitempty"`
	Status           JobStatus   `json:"status"`

	AssignedNode   PublicKey `json:"assigned_node"`
	AssignedNodeID string    `json:"assigned_node_id,omitempty"`
	// TimedOutNodes holds every node that let this job expire, oldest first.
	// It grows by one per retry, so it never exceeds MaxRetriesPerJob+1.
	TimedOutNodes []Address `json:"timed_out_nodes,omitempty"`

	ResultHash string `json:"result_hash,omitempty"`
	LogsURL    string `json:"logs_url,omitempty"`
	ResultSize int64  `json:"result_size,omitempty"`

	RetriesUsed    uint32 `json:"retries_used"`
	PaymentSettled bool   `json:"payment_settled"`

	CreatedAt   int64 `json:"created_at"`
	AssignedAt  int64 `json:"assigned_at"`
	CompletedAt int64 `json:"completed_at"`
}

// Address returns the job's record address.
func (j Job) Address() Address {
	return JobAddress(j.Client, j.JobID)
}

// TimedOutOn reports whether node already let this job expire.
func (j Job) TimedOutOn(node Address) bool {
	return slices.Contains(j.TimedOutNodes, node)
}

// AssignedNodeAddress returns the record address of the assigned node.
func (j Job) AssignedNodeAddress() Address {
	return NodeAddress(j.AssignedNode, j.AssignedNodeID)
}

// IsExpired reports whether an assigned job ran past its timeout at now.
func (j Job) IsExpired(cfg Config, now int64) bool {
	return j.Status == JobStatusAssigned && now-j.AssignedAt > cfg.EffectiveJobTimeout(j.TimeoutSeconds)
}
