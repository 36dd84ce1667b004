package store

import (
	"slices"
	"time"
)

// Role tags who authored a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one exchanged chat message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Passage is a retrieved unit of source text. Treated as immutable evidence once retrieved.
type Passage struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// TopicLabel is the tri-state topicality of the current question
type TopicLabel string

const (
	TopicUnknown TopicLabel = ""
	TopicYes     TopicLabel = "yes"
	TopicNo      TopicLabel = "no"
)

// Step names a node of the answer workflow
type Step string

const (
	StepRewrite      Step = "rewrite"
	StepClassify     Step = "classify"
	StepRetrieve     Step = "retrieve"
	StepGrade        Step = "grade"
	StepRefine       Step = "refine"
	StepGenerate     Step = "generate"
	StepCannotAnswer Step = "cannot_answer"
	StepOffTopic     Step = "off_topic"
	StepEnd          Step = "end"
)

// Terminal reports whether the step ends a run once executed
func (s Step) Terminal() bool {
	return s == StepGenerate || s == StepCannotAnswer || s == StepOffTopic
}

// Outcome is how a completed run ended
type Outcome string

const (
	OutcomeNone         Outcome = ""
	OutcomeAnswered     Outcome = "answered"
	OutcomeCannotAnswer Outcome = "cannot_answer"
	OutcomeOffTopic     Outcome = "off_topic"
)

// Checkpoint records where an unfinished run should continue
type Checkpoint struct {
	Next    Step `json:"next"`
	Pending bool `json:"pending"`
}

// SessionState is the accumulated state of one conversation thread.
// It is owned by the workflow engine during a run and persisted between runs.
type SessionState struct {
	Messages          []Message  `json:"messages"`
	Documents         []Passage  `json:"documents"`
	RephrasedQuestion string     `json:"rephrased_question"`
	IsTopic           TopicLabel `json:"is_topic"`
	ProceedToGenerate bool       `json:"proceed_to_generate"`
	RephraseCount     int        `json:"rephrase_count"`
	Question          string     `json:"question"`

	Checkpoint Checkpoint `json:"checkpoint"`
	Outcome    Outcome    `json:"outcome"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewSessionState returns the state of a conversation that has not seen any message yet
func NewSessionState() *SessionState {
	return &SessionState{
		Messages:  []Message{},
		Documents: []Passage{},
	}
}

// Clone returns a deep copy so a step can mutate it without touching the committed state
func (s *SessionState) Clone() *SessionState {
	c := *s
	c.Messages = slices.Clone(s.Messages)
	c.Documents = slices.Clone(s.Documents)
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	if c.Documents == nil {
		c.Documents = []Passage{}
	}
	return &c
}

// History returns every message except a trailing user message equal to the current question
func (s *SessionState) History() []Message {
	if n := len(s.Messages); n > 0 && s.Messages[n-1].Role == RoleUser && s.Messages[n-1].Content == s.Question {
		return s.Messages[:n-1]
	}
	return s.Messages
}

// ScoredPassage is a search candidate together with its embedding, used for diversity re-ranking
type ScoredPassage struct {
	Passage   Passage
	Embedding []float32
}
