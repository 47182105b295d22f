package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcbaptista/what-can-i-cook/model"
)

// topRecipesTracked is how many leading results an analytics event remembers.
const topRecipesTracked = 5

// MatchRequestBody is the JSON body of POST /api/meals/what-can-i-cook.
// minMatchPercentage is accepted as an alias of min_match_percentage for older
// clients. When neither is sent the configured default applies.
type MatchRequestBody struct {
	Ingredients             []string `json:"ingredients"`
	MinMatchPercentage      *int     `json:"min_match_percentage"`
	MinMatchPercentageAlias *int     `json:"minMatchPercentage"`
}

// Threshold returns the requested threshold, or def when none was sent.
func (b *MatchRequestBody) Threshold(def int) int {
	switch {
	case b.MinMatchPercentage != nil:
		return *b.MinMatchPercentage
	case b.MinMatchPercentageAlias != nil:
		return *b.MinMatchPercentageAlias
	}
	return def
}

// MatchResponse wraps ranked results.
type MatchResponse struct {
	Results            []model.MatchResult `json:"results"`
	Total              int                 `json:"total"`
	MinMatchPercentage int                 `json:"min_match_percentage"`
	Took               int64               `json:"took"` // milliseconds
	QueryID            string              `json:"query_id"`
}

// WhatCanICookHandler ranks recipes by how much of each the caller can already make.
func (api *API) WhatCanICookHandler(c *gin.Context) {
	startTime := time.Now()

	var body MatchRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidateMatchRequest(&body, MatchLimits{
		MaxOwnedIngredients: api.cfg.Match.MaxOwnedIngredients,
		MaxIngredientLength: api.cfg.Match.MaxIngredientLength,
	}); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	req := model.MatchRequest{
		OwnedIngredients:   body.Ingredients,
		MinMatchPercentage: body.Threshold(api.cfg.Match.DefaultMinMatchPercentage),
	}

	results, err := api.engine.FindMatches(req)
	took := time.Since(startTime)
	api.track(req, results, took, err != nil)
	if err != nil {
		SendEngineError(c, "match", err)
		return
	}

	c.JSON(http.StatusOK, MatchResponse{
		Results:            results,
		Total:              len(results),
		MinMatchPercentage: req.MinMatchPercentage,
		Took:               took.Milliseconds(),
		QueryID:            uuid.New().String(),
	})
}

func (api *API) track(req model.MatchRequest, results []model.MatchResult, took time.Duration, failed bool) {
	if api.analytics == nil {
		return
	}

	top := make([]string, 0, topRecipesTracked)
	for i := 0; i < len(results) && i < topRecipesTracked; i++ {
		top = append(top, results[i].RecipeID)
	}

	api.analytics.TrackMatchEvent(model.MatchEvent{
		OwnedIngredients:   req.OwnedIngredients,
		MinMatchPercentage: req.MinMatchPercentage,
		ResultCount:        len(results),
		TopRecipeIDs:       top,
		ResponseTime:       took,
		Failed:             failed,
	})
}

// GetRecipeHandler returns the full recipe for a result's recipe_id.
func (api *API) GetRecipeHandler(c *gin.Context) {
	recipeID := c.Param("id")
	if result := ValidateRecipeID(recipeID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	recipe, err := api.engine.GetRecipe(recipeID)
	if err != nil {
		SendEngineError(c, "get recipe", err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}
