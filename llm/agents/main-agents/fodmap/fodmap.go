// Package fodmap classifies a food against every FODMAP sensitivity category
// by researching each category concurrently and aggregating the results.
package fodmap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fodmap-research/internal/metrics"
	"fodmap-research/llm/agents"
	"fodmap-research/llm/providers"
)

// ErrEmptyFoodName is returned before any research when no food is given
var ErrEmptyFoodName = errors.New("food name is required")

// Searcher is the search-and-summarize step the classifier relies on
type Searcher interface {
	SearchAndSummarize(ctx context.Context, query string) (agents.SearchResult, error)
}

// Classifier is the food sensitivity research agent
type Classifier struct {
	searcher  Searcher
	completer providers.Completer
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// outcome is the result of one category branch. A non-nil err marks a
// failure that was absorbed and must be filtered out.
type outcome struct {
	level SensitivityLevel
	err   error
}

// NewClassifier creates a classifier. A nil m gets a private registry.
func NewClassifier(searcher Searcher, completer providers.Completer, m *metrics.Metrics, logger zerolog.Logger) *Classifier {
	if m == nil {
		m = metrics.New()
	}
	return &Classifier{
		searcher:  searcher,
		completer: completer,
		metrics:   m,
		logger:    logger.With().Str("agent", AgentName).Logger(),
	}
}

// Name returns the agent name
func (c *Classifier) Name() string { return AgentName }

// ResearchFoodSensitivity classifies foodName for every category except
// CategoryNone. Categories that fail or come back as sentinels are left out
// of the result; they never fail the call.
func (c *Classifier) ResearchFoodSensitivity(ctx context.Context, foodName string) (FoodSensitivity, error) {
	foodName = strings.TrimSpace(foodName)
	if foodName == "" {
		return FoodSensitivity{}, ErrEmptyFoodName
	}

	logger := c.logger.With().
		Str("request_id", uuid.NewString()).
		Str("food", foodName).
		Logger()
	logger.Info().Msg("Researching food sensitivities")

	categories := Categories()
	outcomes := make([]outcome, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			outcomes[i] = c.classify(gctx, logger, foodName, category)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FoodSensitivity{}, err
	}
	if err := ctx.Err(); err != nil {
		return FoodSensitivity{}, fmt.Errorf("research cancelled for %s: %w", foodName, err)
	}

	result := aggregate(foodName, outcomes)

	logger.Info().
		Int("levels", len(result.SensitivityLevels)).
		Int("citations", len(result.Citations)).
		Msg("Found food sensitivities")
	return result, nil
}

func (c *Classifier) classify(ctx context.Context, logger zerolog.Logger, food string, category SensitivityCategory) outcome {
	c.metrics.CategoryAttempts.WithLabelValues(category.String()).Inc()

	level, err := c.classifyCategory(ctx, logger, food, category)
	if err != nil {
		c.metrics.CategoryFailures.WithLabelValues(category.String()).Inc()
		logger.Error().Err(err).Stringer("category", category).Msg("Failed to get intolerance level")
		return outcome{err: err}
	}
	return outcome{level: level}
}

func (c *Classifier) classifyCategory(ctx context.Context, logger zerolog.Logger, food string, category SensitivityCategory) (SensitivityLevel, error) {
	logger.Debug().Stringer("category", category).Msg("Requesting intolerance level")

	found, err := c.searcher.SearchAndSummarize(ctx, searchQuery(category, food))
	if err != nil {
		return SensitivityLevel{}, fmt.Errorf("search: %w", err)
	}

	var level SensitivityLevel
	if err := c.completer.CompleteStructured(ctx, classificationPrompt(found.Summary, food, category), SensitivityLevelSchema, &level); err != nil {
		return SensitivityLevel{}, fmt.Errorf("classify: %w", err)
	}

	kept, rejected := agents.FilterCitations(level.Citations)
	if len(rejected) > 0 {
		logger.Warn().Strs("rejected", rejected).Stringer("category", category).Msg("Dropped malformed citations")
	}
	level.Citations = kept

	logger.Debug().
		Stringer("category", category).
		Stringer("sensitivity", level.Sensitivity).
		Stringer("intolerance", level.IntoleranceLevel).
		Msg("Found sensitivity level")
	return level, nil
}

// aggregate drops failures and sentinels, keeping category order
func aggregate(food string, outcomes []outcome) FoodSensitivity {
	result := FoodSensitivity{
		FoodName:          food,
		SensitivityLevels: []SensitivityLevel{},
		Citations:         []string{},
	}
	for _, o := range outcomes {
		if o.err != nil || o.level.IsSentinel() {
			continue
		}
		result.SensitivityLevels = append(result.SensitivityLevels, o.level)
		result.Citations = append(result.Citations, o.level.Citations...)
	}
	return result
}
