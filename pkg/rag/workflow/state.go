package workflow

import (
	"context"
	"strings"

	"multistep-rag-be/pkg/store"
)

// Route is the decision taken by a conditional edge
type Route int

const (
	RouteRetrieve Route = iota + 1
	RouteOffTopic
	RouteGenerate
	RouteCannotAnswer
	RouteRefine
)

func (r Route) String() string {
	switch r {
	case RouteRetrieve:
		return "retrieve"
	case RouteOffTopic:
		return "off_topic"
	case RouteGenerate:
		return "generate"
	case RouteCannotAnswer:
		return "cannot_answer"
	case RouteRefine:
		return "refine"
	default:
		return "unknown"
	}
}

var routeTargets = map[Route]store.Step{
	RouteRetrieve:     store.StepRetrieve,
	RouteOffTopic:     store.StepOffTopic,
	RouteGenerate:     store.StepGenerate,
	RouteCannotAnswer: store.StepCannotAnswer,
	RouteRefine:       store.StepRefine,
}

// topicRouter follows a classification: in-domain questions go to retrieval
func topicRouter(st *store.SessionState) Route {
	if st.IsTopic == store.TopicYes {
		return RouteRetrieve
	}
	return RouteOffTopic
}

// proceedRouter follows grading: answer, give up once refinements are exhausted, or refine
func proceedRouter(st *store.SessionState, maxRephrase int) Route {
	switch {
	case st.ProceedToGenerate:
		return RouteGenerate
	case st.RephraseCount >= maxRephrase:
		return RouteCannotAnswer
	default:
		return RouteRefine
	}
}

// transition is the dispatcher over the fixed step graph
func (e *Engine) transition(step store.Step, st *store.SessionState) store.Step {
	switch step {
	case store.StepRewrite:
		return store.StepClassify
	case store.StepClassify:
		return routeTargets[topicRouter(st)]
	case store.StepRetrieve:
		return store.StepGrade
	case store.StepGrade:
		return routeTargets[proceedRouter(st, e.cfg.MaxRephrase)]
	case store.StepRefine:
		return store.StepRetrieve
	default:
		return store.StepEnd
	}
}

// stepFunc mutates work in place; work is discarded when an error is returned
type stepFunc func(ctx context.Context, question string, work *store.SessionState, emit func(string) error) error

func (e *Engine) steps() map[store.Step]stepFunc {
	return map[store.Step]stepFunc{
		store.StepRewrite:      e.rewrite,
		store.StepClassify:     e.classify,
		store.StepRetrieve:     e.retrieve,
		store.StepGrade:        e.grade,
		store.StepRefine:       e.refine,
		store.StepGenerate:     e.generate,
		store.StepCannotAnswer: e.cannotAnswer,
		store.StepOffTopic:     e.offTopic,
	}
}

func pathString(path []store.Step) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = string(p)
	}
	return strings.Join(parts, " -> ")
}
