package pipeline

import (
	"log/slog"

	"github.com/IshaanNene/NewsGoat/internal/types"
)

// Middleware processes a record and returns the (possibly replaced) record.
// Return nil to drop the record from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a record. Return nil to drop it.
	Process(news *types.News) (*types.News, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the record through all middleware in order.
func (p *Pipeline) Process(news *types.News) (*types.News, error) {
	current := news

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &types.PipelineError{
				Stage: mw.Name(),
				News:  current,
				Err:   err,
			}
		}
		if result == nil {
			p.logger.Debug("record dropped", "stage", mw.Name(), "title", current.Title())
			return nil, nil
		}
		current = result
	}

	return current, nil
}

// ProcessAll runs every record through the pipeline, keeping order and
// leaving out dropped records.
func (p *Pipeline) ProcessAll(list []types.News) ([]types.News, error) {
	out := make([]types.News, 0, len(list))
	for i := range list {
		result, err := p.Process(&list[i])
		if err != nil {
			return nil, err
		}
		if result != nil {
			out = append(out, *result)
		}
	}
	return out, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}
