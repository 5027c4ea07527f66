// Package state defines ConversationState, the Agent Graph's working
// record, and the reducer contract nodes use to patch it.
package state

import (
	"time"

	"github.com/pr0ta9/Genesis-sub000/pkg/toolspec"
	"github.com/pr0ta9/Genesis-sub000/pkg/workflow"
)

// Role is the sender of one conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in ConversationState.Messages.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Reasoning string    `json:"reasoning,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Precedent candidate as surfaced to the precedent node, carrying its
// similarity score alongside the stored record.
type PrecedentCandidate struct {
	UID        string  `json:"uid"`
	Similarity float64 `json:"similarity"`
}

// ExecutionResults mirrors §4.3.5's ExecutionResult, as stored on state
// after the execute node runs.
type ExecutionResults struct {
	Success         bool           `json:"success"`
	ExecutionPath   []string       `json:"execution_path"`
	StepsCompleted  int            `json:"steps_completed"`
	FinalOutput     any            `json:"final_output,omitempty"`
	ErrorInfo       *ErrorInfo     `json:"error_info,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// ErrorInfo identifies a failing tool step.
type ErrorInfo struct {
	ToolName        string `json:"tool_name"`
	Message         string `json:"message"`
	ExecutionFailed bool   `json:"execution_failed"`
}

// ErrorDetails carries a node-level failure surfaced to the caller when a
// run aborts.
type ErrorDetails struct {
	Node    string `json:"node"`
	Message string `json:"message"`
}

// END is the sentinel next_node value that terminates the graph.
const END = "END"

// Node names, matching §4.4.1 exactly.
const (
	NodePrecedent           = "precedent"
	NodeClassify            = "classify"
	NodeFindPath            = "find_path"
	NodeRoute               = "route"
	NodeExecute             = "execute"
	NodeFinalize            = "finalize"
	NodeWaitingForFeedback  = "waiting_for_feedback"
)

// ConversationState is the graph's working state, threaded through every
// node per §3.
type ConversationState struct {
	Messages []Message `json:"messages"`

	Node     string `json:"node"`
	NextNode string `json:"next_node"`

	// Classifier outputs.
	Objective             string          `json:"objective,omitempty"`
	InputType             workflow.Type   `json:"input_type,omitempty"`
	TypeSavepoint         []workflow.Type `json:"type_savepoint,omitempty"`
	IsComplex             bool            `json:"is_complex"`
	ClassifyReasoning     string          `json:"classify_reasoning,omitempty"`
	ClassifyClarification string          `json:"classify_clarification,omitempty"`

	// Precedent outputs.
	PrecedentsFound       []PrecedentCandidate `json:"precedents_found,omitempty"`
	PrecedentReasoning    string                `json:"precedent_reasoning,omitempty"`
	PrecedentClarification string               `json:"precedent_clarification,omitempty"`
	ChosenPrecedent       string                `json:"chosen_precedent,omitempty"`

	// Path outputs.
	ToolMetadata []toolspec.ToolMetadata   `json:"tool_metadata,omitempty"`
	AllPaths     [][]toolspec.ToolMetadata `json:"all_paths,omitempty"`

	// Router outputs.
	ChosenPath       []toolspec.PathStep `json:"chosen_path,omitempty"`
	RouteReasoning   string              `json:"route_reasoning,omitempty"`
	RouteClarification string            `json:"route_clarification,omitempty"`
	IsPartial        bool                `json:"is_partial"`

	// Executor outputs.
	ExecutionResults     *ExecutionResults `json:"execution_results,omitempty"`
	ExecutionInstance    string            `json:"execution_instance,omitempty"`
	ExecutionOutputPath  string            `json:"execution_output_path,omitempty"`

	// Finalizer outputs.
	IsComplete        bool   `json:"is_complete"`
	Response          string `json:"response,omitempty"`
	FinalizeReasoning string `json:"finalize_reasoning,omitempty"`
	Summary           string `json:"summary,omitempty"`

	ErrorDetails *ErrorDetails `json:"error_details,omitempty"`
}

// CurrentTarget returns the type the next find_path call should search
// toward, per the invariant that type_savepoint[-1] is always the current
// target.
func (s *ConversationState) CurrentTarget() (workflow.Type, bool) {
	if len(s.TypeSavepoint) == 0 {
		return "", false
	}
	return s.TypeSavepoint[len(s.TypeSavepoint)-1], true
}

// PushSavepoint appends a new intended output type. Per SPEC_FULL.md's
// resolved open question, savepoints are additive across repeated partial
// re-plans, never replaced — the list remains an audit trail of every
// stage the run passed through.
func (s *ConversationState) PushSavepoint(t workflow.Type) {
	s.TypeSavepoint = append(s.TypeSavepoint, t)
}

// AppendMessage appends one message. Used both by nodes directly and by
// the Patch reducer below.
func (s *ConversationState) AppendMessage(m Message) {
	s.Messages = append(s.Messages, m)
}

// Patch is a partial update produced by one node. Only non-zero-value
// fields a node actually sets should be populated; ApplyPatch merges them
// onto a base state per the reducer contract in SPEC_FULL.md / spec §9:
// updates from different nodes merge key-wise at the top level, while
// Messages is append-reduced rather than overwritten.
type Patch struct {
	Messages []Message

	Node     *string
	NextNode *string

	Objective             *string
	InputType             *workflow.Type
	TypeSavepoint         []workflow.Type // when non-nil, appended (additive), never replaces wholesale
	IsComplex             *bool
	ClassifyReasoning     *string
	ClassifyClarification *string

	PrecedentsFound        []PrecedentCandidate
	PrecedentReasoning     *string
	PrecedentClarification *string
	ChosenPrecedent        *string

	ToolMetadata []toolspec.ToolMetadata
	AllPaths     [][]toolspec.ToolMetadata

	ChosenPath         []toolspec.PathStep
	RouteReasoning     *string
	RouteClarification *string
	IsPartial          *bool

	ExecutionResults    *ExecutionResults
	ExecutionInstance   *string
	ExecutionOutputPath *string

	IsComplete        *bool
	Response          *string
	FinalizeReasoning *string
	Summary           *string

	ErrorDetails *ErrorDetails
}

// Apply merges p onto s in place, following the reducer contract: scalar
// and slice fields replace, except Messages and TypeSavepoint which
// append. This is the single place that implements "deep update within
// the patch for this node" vs. "replacement across nodes" from the
// design notes.
func (p Patch) Apply(s *ConversationState) {
	s.Messages = append(s.Messages, p.Messages...)

	if p.Node != nil {
		s.Node = *p.Node
	}
	if p.NextNode != nil {
		s.NextNode = *p.NextNode
	}
	if p.Objective != nil {
		s.Objective = *p.Objective
	}
	if p.InputType != nil {
		s.InputType = *p.InputType
	}
	if p.TypeSavepoint != nil {
		s.TypeSavepoint = append(s.TypeSavepoint, p.TypeSavepoint...)
	}
	if p.IsComplex != nil {
		s.IsComplex = *p.IsComplex
	}
	if p.ClassifyReasoning != nil {
		s.ClassifyReasoning = *p.ClassifyReasoning
	}
	if p.ClassifyClarification != nil {
		s.ClassifyClarification = *p.ClassifyClarification
	}
	if p.PrecedentsFound != nil {
		s.PrecedentsFound = p.PrecedentsFound
	}
	if p.PrecedentReasoning != nil {
		s.PrecedentReasoning = *p.PrecedentReasoning
	}
	if p.PrecedentClarification != nil {
		s.PrecedentClarification = *p.PrecedentClarification
	}
	if p.ChosenPrecedent != nil {
		s.ChosenPrecedent = *p.ChosenPrecedent
	}
	if p.ToolMetadata != nil {
		s.ToolMetadata = p.ToolMetadata
	}
	if p.AllPaths != nil {
		s.AllPaths = p.AllPaths
	}
	if p.ChosenPath != nil {
		s.ChosenPath = p.ChosenPath
	}
	if p.RouteReasoning != nil {
		s.RouteReasoning = *p.RouteReasoning
	}
	if p.RouteClarification != nil {
		s.RouteClarification = *p.RouteClarification
	}
	if p.IsPartial != nil {
		s.IsPartial = *p.IsPartial
	}
	if p.ExecutionResults != nil {
		s.ExecutionResults = p.ExecutionResults
	}
	if p.ExecutionInstance != nil {
		s.ExecutionInstance = *p.ExecutionInstance
	}
	if p.ExecutionOutputPath != nil {
		s.ExecutionOutputPath = *p.ExecutionOutputPath
	}
	if p.IsComplete != nil {
		s.IsComplete = *p.IsComplete
	}
	if p.Response != nil {
		s.Response = *p.Response
	}
	if p.FinalizeReasoning != nil {
		s.FinalizeReasoning = *p.FinalizeReasoning
	}
	if p.Summary != nil {
		s.Summary = *p.Summary
	}
	if p.ErrorDetails != nil {
		s.ErrorDetails = p.ErrorDetails
	}
}

func strPtr(s string) *string { return &s }

// StrPtr exposes the pointer helper for node implementations building
// patches outside this package.
func StrPtr(s string) *string { return strPtr(s) }

func BoolPtr(b bool) *bool { return &b }

func TypePtr(t workflow.Type) *workflow.Type { return &t }
