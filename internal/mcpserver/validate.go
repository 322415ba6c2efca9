package mcpserver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/aellingwood/cardforge/internal/content"
	tmpl "github.com/aellingwood/cardforge/internal/template"
	"github.com/aellingwood/cardforge/internal/theme"
)

// abbreviations maps shorthand that authors type to the term it stands for.
var abbreviations = map[string]string{
	"bullets":  "bullet_points",
	"image":    "image_data",
	"img":      "image_data",
	"template": "template_id",
	"bg":       "background_color",
	"color":    "text_color",
	"benefit":  "key_benefits",
	"fx":       "effects",
}

// findSimilarTerms finds existing terms similar to input using Levenshtein
// distance and abbreviation detection.
func findSimilarTerms(input string, existing []string, threshold int) []string {
	inputLower := strings.ToLower(input)
	seen := make(map[string]bool)
	var similar []string

	if expanded, ok := abbreviations[inputLower]; ok {
		for _, term := range existing {
			if strings.ToLower(term) == expanded && !seen[term] {
				seen[term] = true
				similar = append(similar, term)
			}
		}
	}

	for _, term := range existing {
		termLower := strings.ToLower(term)
		if termLower == inputLower {
			continue
		}
		if levenshtein.ComputeDistance(inputLower, termLower) <= threshold && !seen[term] {
			seen[term] = true
			similar = append(similar, term)
		}
	}
	return similar
}

// validatePage checks raw content before it is normalized. Normalization
// never fails, so most findings are warnings about values that would be
// silently replaced by defaults. Only an unknown template is an error: the
// page would render with a different template than the author asked for.
func validatePage(raw map[string]any, themeID string, themes *theme.Set) ValidatePageOutput {
	errs := []ValidationError{}
	warns := []ValidationWarning{}

	doc := content.Normalize(raw)

	if doc.TemplateID != "" {
		if _, ok := tmpl.Lookup(doc.TemplateID); !ok {
			e := ValidationError{
				Field:   "template_id",
				Message: fmt.Sprintf("Unknown template %q; the page would render with %s", doc.TemplateID, tmpl.DefaultID),
				Value:   doc.TemplateID,
			}
			if s := findSimilarTerms(doc.TemplateID, tmpl.IDs(), 4); len(s) > 0 {
				e.Message += fmt.Sprintf(". Did you mean %q?", s[0])
			}
			errs = append(errs, e)
		}
	}

	if themeID != "" {
		if _, ok := themes.Get(themeID); !ok {
			w := ValidationWarning{
				Field:   "theme",
				Message: fmt.Sprintf("Unknown theme %q; the default theme would be used", themeID),
			}
			var ids []string
			for _, t := range themes.All() {
				ids = append(ids, t.ID)
			}
			if s := findSimilarTerms(themeID, ids, 3); len(s) > 0 {
				w.Suggestion = s[0]
			}
			warns = append(warns, w)
		}
	}

	if strings.TrimSpace(doc.Title) == "" {
		warns = append(warns, ValidationWarning{Field: "title", Message: "title is empty; the title block will be omitted"})
	}

	if v, ok := raw["layout_mode"]; ok {
		if mode := fmt.Sprint(v); mode != string(content.LayoutTemplate) && mode != string(content.LayoutFree) {
			warns = append(warns, ValidationWarning{
				Field:      "layout_mode",
				Message:    fmt.Sprintf("layout_mode %q is not template or free; template layout is used", mode),
				Suggestion: string(content.LayoutTemplate),
			})
		}
	}

	if v, ok := raw["image_fit"].(string); ok && v != "" && doc.ImageFit == "" {
		warns = append(warns, ValidationWarning{
			Field:   "image_fit",
			Message: fmt.Sprintf("image_fit %q is not cover, contain or fill; the template default is used", v),
		})
	}

	for _, field := range []string{"background_color", "text_color"} {
		v, ok := raw[field].(string)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if _, valid := theme.ParseColor(v); !valid {
			warns = append(warns, ValidationWarning{
				Field:   field,
				Message: fmt.Sprintf("%s %q is not a recognized color; the theme color is used", field, v),
			})
		}
	}

	if overflow, ok := raw["field_overflow"].(map[string]any); ok {
		for _, field := range sortedKeys(overflow) {
			entry, ok := overflow[field].(map[string]any)
			if !ok {
				continue
			}
			mode, ok := entry["mode"].(string)
			if ok && !content.OverflowMode(mode).Valid() {
				warns = append(warns, ValidationWarning{
					Field:   "field_overflow." + field,
					Message: fmt.Sprintf("overflow mode %q is not wrap, clamp, ellipsis or autofit; the default is used", mode),
				})
			}
		}
	}

	known := content.KnownKeys()
	for _, key := range sortedKeys(raw) {
		if slices.Contains(known, key) {
			continue
		}
		similar := findSimilarTerms(key, known, 2)
		if len(similar) == 0 {
			continue
		}
		warns = append(warns, ValidationWarning{
			Field:      key,
			Message:    fmt.Sprintf("Field %q is not a content field and is kept as extra data. Did you mean %q?", key, similar[0]),
			Suggestion: similar[0],
		})
	}

	return ValidatePageOutput{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
