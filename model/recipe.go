package model

// Ingredient is one (name, measure) pair as declared by a recipe.
// Order within Recipe.Ingredients is significant.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

// Recipe is a single entry of the recipe corpus.
// Recipes are treated as immutable once they are part of a loaded snapshot.
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Category     string       `json:"category,omitempty"`
	Area         string       `json:"area,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	YoutubeURL   string       `json:"youtube_url,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
}

// IngredientNames returns the raw ingredient names in recipe order.
func (r Recipe) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}

// Clone returns a deep copy of the recipe.
func (r Recipe) Clone() Recipe {
	c := r
	if r.Tags != nil {
		c.Tags = append([]string(nil), r.Tags...)
	}
	if r.Ingredients != nil {
		c.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	}
	return c
}

// MatchRequest asks which recipes can be made from a set of owned ingredients.
type MatchRequest struct {
	OwnedIngredients   []string `json:"ingredients"`
	MinMatchPercentage int      `json:"min_match_percentage"`
}

// MatchResult describes how well one recipe is covered by the owned ingredients.
//
// MatchedIngredientsCount + len(MissingIngredients) == TotalIngredientsCount always holds,
// and MatchPercentage is derived from exactly those counts.
type MatchResult struct {
	RecipeID                string   `json:"recipe_id"`
	Recipe                  *Recipe  `json:"recipe,omitempty"`
	MatchPercentage         float64  `json:"match_percentage"`
	MatchedIngredientsCount int      `json:"matched_ingredients_count"`
	TotalIngredientsCount   int      `json:"total_ingredients_count"`
	MatchedIngredients      []string `json:"matched_ingredients"`
	MissingIngredients      []string `json:"missing_ingredients"`
}
