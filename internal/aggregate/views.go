package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"procintel/internal/health"
	"procintel/internal/logging"
	"procintel/internal/types"
)

// Views bundles the grouped statistics a report needs.
type Views struct {
	// Responsibles covers active and completed records together.
	Responsibles *ResponsibleTable
	// Types covers active and completed records together.
	Types *TypeTable
	// Modalities counts active records only.
	Modalities *Counter
	// ActiveByResponsible counts active records only.
	ActiveByResponsible *Counter
}

// BuildViews computes every view concurrently. Each goroutine owns the view it
// writes, and inputs are read-only, so the result equals a sequential build.
func BuildViews(ctx context.Context, active, completed []types.ProcessRecord, c *health.Classifier) (*Views, error) {
	timer := logging.StartTimer(logging.CategoryAggregation, "BuildViews")
	defer timer.Stop()

	all := make([]types.ProcessRecord, 0, len(active)+len(completed))
	all = append(all, active...)
	all = append(all, completed...)

	v := &Views{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.Responsibles = ResponsibleStats(all, c)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.Types = TypeCompletionStats(all, c)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.Modalities = ModalityCounts(active)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v.ActiveByResponsible = ResponsibleCounts(active)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.AggregationDebug("views built: %d responsibles, %d types, %d modalities",
		v.Responsibles.Len(), v.Types.Len(), v.Modalities.Len())
	return v, nil
}

// BuildViewsSequential computes the same views on the calling goroutine.
func BuildViewsSequential(active, completed []types.ProcessRecord, c *health.Classifier) *Views {
	all := make([]types.ProcessRecord, 0, len(active)+len(completed))
	all = append(all, active...)
	all = append(all, completed...)
	return &Views{
		Responsibles:        ResponsibleStats(all, c),
		Types:               TypeCompletionStats(all, c),
		Modalities:          ModalityCounts(active),
		ActiveByResponsible: ResponsibleCounts(active),
	}
}
