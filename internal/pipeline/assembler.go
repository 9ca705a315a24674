package pipeline

import (
	"github.com/qepting91/caption-importer/internal/caption"
	"github.com/qepting91/caption-importer/internal/domain"
	"github.com/qepting91/caption-importer/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// DraftParser is satisfied by *caption.Parser.
type DraftParser interface {
	Parse(caption, mediaURL string) (domain.ProductDraft, bool)
}

// Assembler pairs qualifying posts with their drafts.
type Assembler struct {
	Parser  DraftParser
	Workers int
	Metrics *metrics.PipelineMetrics
}

// Assemble keeps image posts that pass the classifier and yield a draft.
// Parsing runs on a small worker pool; results are placed by index so the
// output follows fetch order. Nothing is deduplicated.
func (a *Assembler) Assemble(posts []domain.SourcePost) []domain.Candidate {
	if len(posts) == 0 {
		return []domain.Candidate{}
	}
	results := make([]*domain.Candidate, len(posts))

	workers := a.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(posts) {
		workers = len(posts)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range posts {
		g.Go(func() error {
			results[i] = a.assembleOne(posts[i])
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Candidate, 0, len(posts))
	for _, c := range results {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

func (a *Assembler) assembleOne(post domain.SourcePost) *domain.Candidate {
	if post.MediaKind != domain.MediaKindImage {
		a.Metrics.ObservePost(metrics.OutcomeNotImage)
		return nil
	}
	if !caption.IsProductPost(post.Caption) {
		a.Metrics.ObservePost(metrics.OutcomeNotProduct)
		return nil
	}
	draft, ok := a.Parser.Parse(post.Caption, post.MediaURL)
	if !ok {
		a.Metrics.ObservePost(metrics.OutcomeNoPrice)
		return nil
	}
	a.Metrics.ObservePost(metrics.OutcomeDrafted)
	return &domain.Candidate{Post: post, Draft: draft}
}
