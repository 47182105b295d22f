package mealdb

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/what-can-i-cook/model"
)

// TheMealDB returns {"meals": null} rather than an empty list when nothing matches.
type mealsResponse struct {
	Meals []map[string]interface{} `json:"meals"`
}

type categoriesResponse struct {
	Categories []struct {
		ID   string `json:"idCategory"`
		Name string `json:"strCategory"`
	} `json:"categories"`
}

func (r *mealsResponse) recipes() []model.Recipe {
	out := make([]model.Recipe, 0, len(r.Meals))
	for _, meal := range r.Meals {
		out = append(out, toRecipe(meal))
	}
	return out
}

// toRecipe maps one API meal object. Ingredient slots with a blank name are skipped;
// their measure is dropped with them.
func toRecipe(meal map[string]interface{}) model.Recipe {
	recipe := model.Recipe{
		ID:           field(meal, "idMeal"),
		Name:         field(meal, "strMeal"),
		Category:     field(meal, "strCategory"),
		Area:         field(meal, "strArea"),
		Instructions: field(meal, "strInstructions"),
		ThumbnailURL: field(meal, "strMealThumb"),
		YoutubeURL:   field(meal, "strYoutube"),
		Tags:         splitTags(field(meal, "strTags")),
	}

	for i := 1; i <= maxIngredientSlots; i++ {
		name := field(meal, fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		recipe.Ingredients = append(recipe.Ingredients, model.Ingredient{
			Name:    name,
			Measure: field(meal, fmt.Sprintf("strMeasure%d", i)),
		})
	}
	return recipe
}

func field(meal map[string]interface{}, key string) string {
	s, ok := meal[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
