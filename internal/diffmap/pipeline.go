package diffmap

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

type StageProgressFn func(stage, message string)

type DiscoveryRunner interface {
	Discover(ctx context.Context, idea string) ([]Competitor, error)
}

type MatrixRunner interface {
	Build(ctx context.Context, competitors []Competitor) (FeatureMatrix, error)
}

type StrategyRunner interface {
	Generate(ctx context.Context, idea string, competitors []Competitor, matrix FeatureMatrix) (Strategy, error)
}

// StageInfo describes one pipeline stage: its name, the state fields it
// reads, and the single field it produces. The topology is a fixed linear
// chain today, but it is declared as data so branching or parallel stages can
// be added without restructuring the orchestrator.
type StageInfo struct {
	Name     string
	Requires []string
	Produces string
}

type stage struct {
	info      StageInfo
	message   string
	errPrefix string
	run       func(ctx context.Context, state *PipelineState) error
}

// Pipeline wires the four stages into a fixed linear chain over one shared
// state record. Stage composition is fail-fast: a stage error sets
// state.Error and later stages never run. Sub-step failures inside a stage
// never reach this level.
type Pipeline struct {
	discovery DiscoveryRunner
	matrix    MatrixRunner
	strategy  StrategyRunner
	visualize func([]Competitor, FeatureMatrix, Strategy) VisualizationBundle
	stages    []stage
}

func NewPipeline(discovery DiscoveryRunner, matrix MatrixRunner, strategy StrategyRunner) *Pipeline {
	p := &Pipeline{
		discovery: discovery,
		matrix:    matrix,
		strategy:  strategy,
		visualize: MapVisualizations,
	}
	p.stages = []stage{
		{
			info:      StageInfo{Name: "discover_competitors", Requires: []string{"startup_idea"}, Produces: "competitors"},
			message:   "Discovering competitors...",
			errPrefix: "Error discovering competitors",
			run: func(ctx context.Context, state *PipelineState) error {
				competitors, err := p.discovery.Discover(ctx, state.StartupIdea)
				if err != nil {
					return err
				}
				state.Competitors = competitors
				return nil
			},
		},
		{
			info:      StageInfo{Name: "build_feature_matrix", Requires: []string{"competitors"}, Produces: "feature_matrix"},
			message:   "Building feature matrix...",
			errPrefix: "Error building feature matrix",
			run: func(ctx context.Context, state *PipelineState) error {
				matrix, err := p.matrix.Build(ctx, state.Competitors)
				if err != nil {
					return err
				}
				state.FeatureMatrix = matrix
				return nil
			},
		},
		{
			info:      StageInfo{Name: "generate_strategy", Requires: []string{"startup_idea", "competitors", "feature_matrix"}, Produces: "strategy"},
			message:   "Generating differentiation strategy...",
			errPrefix: "Error generating strategy",
			run: func(ctx context.Context, state *PipelineState) error {
				strategy, err := p.strategy.Generate(ctx, state.StartupIdea, state.Competitors, state.FeatureMatrix)
				if err != nil {
					return err
				}
				state.Strategy = strategy
				return nil
			},
		},
		{
			info:      StageInfo{Name: "create_visualizations", Requires: []string{"competitors", "feature_matrix", "strategy"}, Produces: "visualizations"},
			message:   "Creating visualizations...",
			errPrefix: "Error creating visualizations",
			run: func(ctx context.Context, state *PipelineState) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				state.Visualizations = p.visualize(state.Competitors, state.FeatureMatrix, state.Strategy)
				return nil
			},
		},
	}
	return p
}

// Stages reports the pipeline topology in execution order.
func (p *Pipeline) Stages() []StageInfo {
	infos := make([]StageInfo, 0, len(p.stages))
	for _, st := range p.stages {
		infos = append(infos, st.info)
	}
	return infos
}

func (p *Pipeline) Run(ctx context.Context, idea string) (PipelineState, error) {
	return p.runWithProgress(ctx, idea, nil)
}

func (p *Pipeline) RunWithProgress(ctx context.Context, idea string, progress StageProgressFn) (PipelineState, error) {
	return p.runWithProgress(ctx, idea, progress)
}

func (p *Pipeline) runWithProgress(ctx context.Context, idea string, progress StageProgressFn) (PipelineState, error) {
	state := PipelineState{
		StartupIdea: strings.TrimSpace(idea),
		Competitors: []Competitor{},
	}
	if state.StartupIdea == "" {
		state.Error = "startup idea is required"
		return state, errors.New(state.Error)
	}
	state.StartupIdea = truncateRunes(state.StartupIdea, MaxIdeaChars)

	for _, st := range p.stages {
		emit(progress, st.info.Name, st.message)
		if err := st.run(ctx, &state); err != nil {
			state.Error = fmt.Sprintf("%s: %v", st.errPrefix, err)
			return state, &StageError{Stage: st.info.Name, Err: err}
		}
	}
	return state, nil
}

func emit(progress StageProgressFn, stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}

// Run is the pipeline's one external boundary: it wires the default stages
// over the provided capabilities and executes a single analysis run. The
// returned state is fresh per invocation; nothing is shared across runs.
func Run(ctx context.Context, idea string, search Searcher, llm LLMCaller, store SimilarityStore) (PipelineState, error) {
	pipeline := NewPipeline(
		NewDiscoveryStage(search, llm, store),
		NewMatrixStage(llm),
		NewStrategyStage(llm),
	)
	return pipeline.Run(ctx, idea)
}
