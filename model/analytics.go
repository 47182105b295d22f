package model

import "time"

// MatchEvent records one served "what can I cook" query.
type MatchEvent struct {
	OwnedIngredients   []string      `json:"owned_ingredients"`
	MinMatchPercentage int           `json:"min_match_percentage"`
	ResultCount        int           `json:"result_count"`
	TopRecipeIDs       []string      `json:"top_recipe_ids,omitempty"`
	ResponseTime       time.Duration `json:"response_time"`
	Failed             bool          `json:"failed"`
	Timestamp          time.Time     `json:"timestamp"`
}

// PopularIngredient is an owned ingredient ranked by how often it was queried.
type PopularIngredient struct {
	Ingredient string `json:"ingredient"`
	Count      int    `json:"count"`
}

// PopularRecipe is a recipe ranked by how often it appeared at the top of results.
type PopularRecipe struct {
	RecipeID string `json:"recipe_id"`
	Count    int    `json:"count"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	Bucket0To1ms   int `json:"bucket_0_1ms"`
	Bucket1To5ms   int `json:"bucket_1_5ms"`
	Bucket5To25ms  int `json:"bucket_5_25ms"`
	Bucket25msPlus int `json:"bucket_25ms_plus"`
}

// AnalyticsDashboard is the aggregated view served by the analytics endpoint.
type AnalyticsDashboard struct {
	TotalQueries             int                      `json:"total_queries"`
	FailedQueries            int                      `json:"failed_queries"`
	EmptyResultQueries       int                      `json:"empty_result_queries"`
	AvgResponseTime          float64                  `json:"avg_response_time_ms"`
	AvgResultCount           float64                  `json:"avg_result_count"`
	AvgOwnedIngredients      float64                  `json:"avg_owned_ingredients"`
	PopularIngredients       []PopularIngredient      `json:"popular_ingredients"`
	PopularRecipes           []PopularRecipe          `json:"popular_recipes"`
	ResponseTimeDistribution ResponseTimeDistribution `json:"response_time_distribution"`
	Since                    time.Time                `json:"since"`
}
