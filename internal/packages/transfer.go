package packages

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	assetFetchFailedWarnMessageConstant = "asset download failed, excluding from upload set"
	assetNameLogFieldNameConstant       = "asset"
	packageNameLogFieldNameConstant     = "package"
	versionNameLogFieldNameConstant     = "version"
)

// AssetOutcome records one asset fetch attempt.
type AssetOutcome struct {
	Staged StagedAsset
	Err    error
}

// Engine downloads version assets in fixed-size sequential batch waves. A
// batch of N assets with concurrency C runs as ⌈N/C⌉ waves; each wave waits
// for every member before the next starts. One asset's failure excludes only
// that asset from the upload set.
type Engine struct {
	logger      *zap.Logger
	concurrency int
}

// NewEngine constructs an Engine with the supplied download concurrency.
func NewEngine(logger *zap.Logger, concurrency int) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Engine{logger: logger, concurrency: concurrency}
}

// FetchAssets downloads every asset of one version through the ecosystem and
// returns one outcome per asset, in input order.
func (engine *Engine) FetchAssets(executionContext context.Context, ecosystem Ecosystem, packageName string, version Version, assets []Asset) []AssetOutcome {
	outcomes := make([]AssetOutcome, len(assets))

	for waveStart := 0; waveStart < len(assets); waveStart += engine.concurrency {
		waveEnd := waveStart + engine.concurrency
		if waveEnd > len(assets) {
			waveEnd = len(assets)
		}

		waveGroup, waveContext := errgroup.WithContext(executionContext)
		for assetIndex := waveStart; assetIndex < waveEnd; assetIndex++ {
			outcomeIndex := assetIndex
			waveGroup.Go(func() error {
				stagedPath, fetchError := ecosystem.FetchAsset(waveContext, packageName, version, assets[outcomeIndex])
				outcomes[outcomeIndex] = AssetOutcome{
					Staged: StagedAsset{Asset: assets[outcomeIndex], Path: stagedPath},
					Err:    fetchError,
				}
				if fetchError != nil {
					engine.logger.Warn(
						assetFetchFailedWarnMessageConstant,
						zap.String(packageNameLogFieldNameConstant, packageName),
						zap.String(versionNameLogFieldNameConstant, version.Name),
						zap.String(assetNameLogFieldNameConstant, assets[outcomeIndex].Name),
						zap.Error(fetchError),
					)
				}
				// Failures are recorded per asset, never propagated, so the
				// rest of the wave still completes.
				return nil
			})
		}
		_ = waveGroup.Wait()
	}

	return outcomes
}

// SuccessfulAssets filters outcomes down to the upload set.
func SuccessfulAssets(outcomes []AssetOutcome) []StagedAsset {
	stagedAssets := make([]StagedAsset, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			continue
		}
		stagedAssets = append(stagedAssets, outcome.Staged)
	}
	return stagedAssets
}
