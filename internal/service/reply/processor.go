// Package reply turns raw model output into the structured chat reply:
// markdown images are lifted out of the text, proper-noun phrases are
// detected as places, and each place gets a generated image URL.
package reply

import (
	"math/rand/v2"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"tripconcierge/internal/models"
)

const (
	// MaxPlaces caps the number of detected places per reply.
	MaxPlaces = 6
	// SigMax is the upper bound (inclusive) of the cache-busting sig parameter.
	SigMax = 9999999

	minPlaceLen   = 3
	fallbackQuery = "travel"
)

var (
	// ![alt](url): alt may be empty, url is anything up to the first ')'.
	imageTagPattern = regexp.MustCompile(`!\[[^\]\n]*\]\(([^)\n]*)\)`)
	// One to four space separated Capitalized words. Word boundaries are
	// checked by placeCandidates so that non-ASCII letters count as letters.
	placePattern = regexp.MustCompile(`[A-Z][a-z]+(?: [A-Z][a-z]+){0,3}`)
)

var placeBlacklist = map[string]struct{}{
	"Summary": {}, "Options": {}, "Best": {}, "Quick": {}, "Here": {},
	"Morning": {}, "Evening": {}, "Night": {}, "Cost": {}, "Who": {},
	"Ideal": {}, "Plan": {}, "Day": {}, "You": {}, "Your": {}, "Trip": {},
	"I": {}, "The": {}, "A": {},
}

// RandomSource yields integers in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Processor post-processes raw model replies. It is safe for concurrent use
// as long as its RandomSource is.
type Processor struct {
	imageBase string
	rnd       RandomSource
}

// NewProcessor returns a Processor that builds fallback image URLs on
// imageBase. A nil rnd uses the process-wide generator.
func NewProcessor(imageBase string, rnd RandomSource) *Processor {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Processor{imageBase: imageBase, rnd: rnd}
}

// Process derives the cleaned answer, image list and place list from raw.
// Images declared by the model come first, generated ones follow in place order.
func (p *Processor) Process(raw string) models.Reply {
	llmImages := ExtractImages(raw)
	answer := StripImages(raw)
	places := ExtractPlaces(answer)

	images := make([]string, 0, len(llmImages)+len(places))
	images = append(images, llmImages...)
	for _, place := range places {
		images = append(images, p.PlaceImage(place))
	}
	return models.Reply{Answer: answer, Images: images, Places: places}
}

// PlaceImage returns the image-search URL for place with a random sig value.
func (p *Processor) PlaceImage(place string) string {
	if place == "" {
		place = fallbackQuery
	}
	sig := p.rnd.IntN(SigMax) + 1
	return p.imageBase + "?" + url.PathEscape(place) + "&sig=" + strconv.Itoa(sig)
}

// ExtractImages returns the URLs of all markdown image tags in text, in order.
func ExtractImages(text string) []string {
	matches := imageTagPattern.FindAllStringSubmatch(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, m[1])
	}
	return urls
}

// StripImages removes every markdown image tag from text and trims the result.
func StripImages(text string) string {
	return strings.TrimSpace(imageTagPattern.ReplaceAllString(text, ""))
}

// ExtractPlaces returns up to MaxPlaces unique capitalized phrases from text
// in first-seen order, skipping blacklisted words and very short phrases.
func ExtractPlaces(text string) []string {
	places := make([]string, 0, MaxPlaces)
	if text == "" {
		return places
	}
	seen := make(map[string]struct{})
	for _, candidate := range placeCandidates(text) {
		if _, banned := placeBlacklist[candidate]; banned {
			continue
		}
		if len(candidate) < minPlaceLen {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		places = append(places, candidate)
		if len(places) >= MaxPlaces {
			break
		}
	}
	return places
}

// placeCandidates returns the placePattern matches that start and end on a
// word boundary. A phrase whose last word runs into further letters (as in
// "Visit Kraków") is cut back to its last whole word.
func placeCandidates(text string) []string {
	var out []string
	pos := 0
	for pos < len(text) {
		loc := placePattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			pos = start + 1
			continue
		}
		for end > start {
			if r, _ := utf8.DecodeRuneInString(text[end:]); !isWordRune(r) {
				break
			}
			cut := strings.LastIndexByte(text[start:end], ' ')
			if cut < 0 {
				end = start
				break
			}
			end = start + cut
		}
		if end == start {
			pos = start + 1
			continue
		}
		out = append(out, text[start:end])
		pos = end
	}
	return out
}

func isWordRune(r rune) bool {
	if r == utf8.RuneError {
		return false
	}
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
