package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"multistep-rag-be/pkg/llm"
	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"
)

type fakeInference struct {
	mu sync.Mutex

	rephrase func(prior []llm.Message, question string) (string, error)
	refine   func(question string) (string, error)
	topic    func(question string) (string, error)
	grade    func(question, passage string) (string, error)
	gradeLag func(passage string) time.Duration

	answerChunks []string
	answerErr    error

	rephraseCalls int
	refineCalls   int
	topicCalls    int
	gradeCalls    int
	answerCalls   int
	answerPrompt  string
}

func (f *fakeInference) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	system := messages[0].Content
	switch {
	case strings.Contains(system, "rephrases"):
		f.mu.Lock()
		f.rephraseCalls++
		f.mu.Unlock()
		if f.rephrase == nil {
			return "standalone: " + messages[len(messages)-1].Content, nil
		}
		return f.rephrase(messages[1:len(messages)-1], messages[len(messages)-1].Content)
	case strings.Contains(system, "refines"):
		f.mu.Lock()
		f.refineCalls++
		n := f.refineCalls
		f.mu.Unlock()
		q := strings.TrimSuffix(strings.TrimPrefix(messages[1].Content, "Original question: "), "\nProvide a slightly refined question.")
		if f.refine == nil {
			return q + " (refined " + string(rune('0'+n)) + ")", nil
		}
		return f.refine(q)
	}
	return "", rag.ErrGatewayUnavailable
}

func (f *fakeInference) Stream(ctx context.Context, messages []llm.Message, onFragment func(string) error) (string, error) {
	f.mu.Lock()
	f.answerCalls++
	f.answerPrompt = messages[len(messages)-1].Content
	f.mu.Unlock()

	if f.answerErr != nil {
		return "", f.answerErr
	}
	chunks := f.answerChunks
	if chunks == nil {
		chunks = []string{"The answer."}
	}
	var full strings.Builder
	for _, c := range chunks {
		if err := onFragment(c); err != nil {
			return "", err
		}
		full.WriteString(c)
	}
	return full.String(), nil
}

func (f *fakeInference) Classify(ctx context.Context, messages []llm.Message, allowed []string) (string, error) {
	user := messages[len(messages)-1].Content
	if strings.Contains(messages[0].Content, "<topics>") {
		f.mu.Lock()
		f.topicCalls++
		f.mu.Unlock()
		q := strings.TrimPrefix(user, "User question: ")
		if f.topic == nil {
			return "yes", nil
		}
		return f.topic(q)
	}

	question := between(user, "<user_question>\n", "\n</user_question>")
	passage := between(user, "<retrieved_document>\n", "\n</retrieved_document>")

	if f.gradeLag != nil {
		select {
		case <-time.After(f.gradeLag(passage)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	f.gradeCalls++
	f.mu.Unlock()
	if f.grade == nil {
		return "yes", nil
	}
	return f.grade(question, passage)
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		return s[:j]
	}
	return s
}

type fakeRetriever struct {
	mu      sync.Mutex
	results func(call int, query string) ([]store.Passage, error)
	queries []string
}

func (f *fakeRetriever) Search(ctx context.Context, query string, k int, diversify bool) ([]store.Passage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	call := len(f.queries)
	f.mu.Unlock()
	return f.results(call, query)
}

func (f *fakeRetriever) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func passages(contents ...string) []store.Passage {
	out := make([]store.Passage, len(contents))
	for i, c := range contents {
		out[i] = store.Passage{ID: c, Source: "paper.pdf#page=1", Content: c}
	}
	return out
}

func fixedPassages(contents ...string) func(int, string) ([]store.Passage, error) {
	return func(int, string) ([]store.Passage, error) {
		return passages(contents...), nil
	}
}

type fakeStore struct {
	mu      sync.Mutex
	states  map[string]*store.SessionState
	saves   []store.Checkpoint
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]*store.SessionState{}}
}

func (f *fakeStore) Load(ctx context.Context, id string) (*store.SessionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[id]
	if !ok {
		return nil, rag.ErrSessionNotFound
	}
	return st.Clone(), nil
}

func (f *fakeStore) Save(ctx context.Context, id string, st *store.SessionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.states[id] = st.Clone()
	f.saves = append(f.saves, st.Checkpoint)
	return nil
}

func (f *fakeStore) get(id string) *store.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[id]
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) Acquire(ctx context.Context, id string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[id] {
		return nil, rag.ErrSessionBusy
	}
	f.held[id] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, id)
	}, nil
}

func (f *fakeLocker) isHeld(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[id]
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []RunReport
}

func (r *recordingNotifier) RunFinished(ctx context.Context, report RunReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}
