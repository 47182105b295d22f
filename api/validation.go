// Package api exposes the matching engine over HTTP.
package api

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/what-can-i-cook/model"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// MatchLimits bounds the size of a match request.
type MatchLimits struct {
	MaxOwnedIngredients int
	MaxIngredientLength int
}

// ValidateMatchRequest checks the shape of a match request body. Whether the
// ingredients normalize to anything, and the threshold range, are checked by the engine.
func ValidateMatchRequest(req *MatchRequestBody, limits MatchLimits) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.Ingredients == nil {
		result.AddError("ingredients", "Ingredients are required")
		return result
	}

	if req.MinMatchPercentage != nil && req.MinMatchPercentageAlias != nil &&
		*req.MinMatchPercentage != *req.MinMatchPercentageAlias {
		result.AddError("min_match_percentage", "min_match_percentage and minMatchPercentage disagree")
	}

	if limits.MaxOwnedIngredients > 0 && len(req.Ingredients) > limits.MaxOwnedIngredients {
		result.AddError("ingredients", fmt.Sprintf("At most %d ingredients are allowed, got %d",
			limits.MaxOwnedIngredients, len(req.Ingredients)))
	}

	if limits.MaxIngredientLength > 0 {
		for i, ing := range req.Ingredients {
			if utf8.RuneCountInString(strings.TrimSpace(ing)) > limits.MaxIngredientLength {
				result.AddError(fmt.Sprintf("ingredients[%d]", i),
					fmt.Sprintf("Ingredient name cannot exceed %d characters", limits.MaxIngredientLength))
			}
		}
	}

	return result
}

// ValidateJobStatus parses an optional status filter.
func ValidateJobStatus(raw string) (*model.JobStatus, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if raw == "" {
		return nil, result
	}

	status := model.JobStatus(strings.ToLower(raw))
	switch status {
	case model.JobStatusPending, model.JobStatusRunning, model.JobStatusCompleted,
		model.JobStatusFailed, model.JobStatusCancelled:
		return &status, result
	}
	result.AddError("status", "Unknown job status '"+raw+"'")
	return nil, result
}

// ValidateRecipeID validates a recipe id path parameter
func ValidateRecipeID(recipeID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if recipeID == "" {
		result.AddError("id", "Recipe ID is required")
		return result
	}
	if strings.TrimSpace(recipeID) != recipeID {
		result.AddError("id", "Recipe ID cannot have leading or trailing whitespace")
	}
	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}
