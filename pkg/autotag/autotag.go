// Package autotag suggests photo tags using a Gemini model.
package autotag

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// MaxTags is the most tags kept per photo.
const MaxTags = 5

var prompt = "generate 1-5 comma-separated one-word tags. Here are some example tags: " +
	"bw for black and white photos, family for family photos, friends for friend photos, " +
	"landscape for landscape photos, nature for nature photos, bird for bird photos, " +
	"beach for beach photos, urban for city photos, night for night photos. " +
	"The tag animal should be included for photos of an animal that is unlikely to be a pet. " +
	"Tags should be a present-tense singular word that a professional photographer would want to " +
	"organize a portfolio with. Do not combine multiple words. " +
	"If you know the location of a photo, add the name of the place, city, or country as a tag."

// Tag asks model for tags describing the thumbnail at thumbPath.
func Tag(ctx context.Context, client *genai.Client, model string, thumbPath string) ([]string, error) {
	bs, err := os.ReadFile(thumbPath)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(bs, "image/webp"),
		genai.NewPartFromText(prompt),
	}
	resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return parseTags(resp.Text()), nil
}

// parseTags normalizes a comma-separated model answer into at most MaxTags unique tags.
func parseTags(s string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, t := range strings.Split(s, ",") {
		t = strings.ToLower(strings.Join(strings.Fields(t), ""))
		t = strings.Trim(t, ".")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}
