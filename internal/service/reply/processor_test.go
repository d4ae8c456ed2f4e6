package reply

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://img.test/900x600/"

type fixedRand struct{ n int }

func (f fixedRand) IntN(int) int { return f.n }

func TestProcessEmpty(t *testing.T) {
	got := NewProcessor(testBase, fixedRand{}).Process("")
	assert.Equal(t, "", got.Answer)
	assert.NotNil(t, got.Images)
	assert.NotNil(t, got.Places)
	assert.Empty(t, got.Images)
	assert.Empty(t, got.Places)
}

func TestProcessImageOnly(t *testing.T) {
	got := NewProcessor(testBase, fixedRand{}).Process("  ![view](https://cdn.test/a.jpg)\n")
	assert.Equal(t, "", got.Answer)
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, got.Images)
	assert.Empty(t, got.Places)
}

func TestProcessMergesModelAndPlaceImages(t *testing.T) {
	p := NewProcessor(testBase, fixedRand{n: 41})
	got := p.Process("![](http://x/a.png) We love Paris and Rome today.")

	assert.Equal(t, "We love Paris and Rome today.", got.Answer)
	assert.Equal(t, []string{"Paris", "Rome"}, got.Places)
	require.Len(t, got.Images, 3)
	assert.Equal(t, "http://x/a.png", got.Images[0])
	assert.Equal(t, testBase+"?Paris&sig=42", got.Images[1])
	assert.Equal(t, testBase+"?Rome&sig=42", got.Images[2])
}

func TestProcessLeadingCapitalJoinsPhrase(t *testing.T) {
	got := NewProcessor(testBase, fixedRand{}).Process("![](http://x/a.png) Visit Paris and Rome today.")
	assert.Equal(t, "Visit Paris and Rome today.", got.Answer)
	assert.Equal(t, []string{"Visit Paris", "Rome"}, got.Places)
	assert.Len(t, got.Images, 3)
}

func TestProcessUnterminatedTagIsKept(t *testing.T) {
	raw := "see ![pic](http://x/a.png for more"
	got := NewProcessor(testBase, fixedRand{}).Process(raw)
	assert.Equal(t, raw, got.Answer)
	assert.Empty(t, got.Images)
	assert.Empty(t, got.Places)
}

func TestExtractImages(t *testing.T) {
	text := "a ![one](http://x/1.png) b ![](http://x/2.png?w=3&h=4) c ![x](http://x/3 big.png)"
	assert.Equal(t, []string{"http://x/1.png", "http://x/2.png?w=3&h=4", "http://x/3 big.png"}, ExtractImages(text))
	assert.Empty(t, ExtractImages("no images [here](http://x)"))
}

func TestStripImagesKeepsOtherMarkdown(t *testing.T) {
	text := "**Summary** ![](http://x/1.png) see [map](http://maps.test) and ![a](b)"
	assert.Equal(t, "**Summary**  see [map](http://maps.test) and", StripImages(text))
}

func TestExtractPlaces(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "blacklisted words dropped",
			text: "Summary: Here is the Plan for your Day. Visit the Louvre and then Eiffel Tower.",
			want: []string{"Visit", "Louvre", "Eiffel Tower"},
		},
		{
			name: "duplicates keep first position",
			text: "Rome first, then Florence, then Rome again.",
			want: []string{"Rome", "Florence"},
		},
		{
			name: "short phrases dropped",
			text: "Go to Ur and Oslo.",
			want: []string{"Oslo"},
		},
		{
			name: "at most four words per phrase",
			text: "Grand Canyon National Park Lodge",
			want: []string{"Grand Canyon National Park", "Lodge"},
		},
		{
			name: "newline separates phrases",
			text: "Paris\nRome",
			want: []string{"Paris", "Rome"},
		},
		{
			name: "capped at six",
			text: "Paris, Rome, Berlin, Madrid, Lisbon, Vienna, Prague, Oslo.",
			want: []string{"Paris", "Rome", "Berlin", "Madrid", "Lisbon", "Vienna"},
		},
		{
			name: "accented word is not cut into a fragment",
			text: "Fly to Montréal next week.",
			want: []string{"Fly"},
		},
		{
			name: "trailing accented word",
			text: "Day trip to Kraków.",
			want: []string{},
		},
		{
			name: "phrase cut back to last whole word",
			text: "Visit Kraków and Gdańsk, then Warsaw Old Town.",
			want: []string{"Visit", "Warsaw Old Town"},
		},
		{
			name: "accented fragment dropped before whole words",
			text: "Café Paris then Rome",
			want: []string{"Paris", "Rome"},
		},
		{
			name: "non-ascii lowercase never starts a place",
			text: "São Paulo",
			want: []string{"Paulo"},
		},
		{
			name: "digits join words",
			text: "Terminal2 at Paris",
			want: []string{"Paris"},
		},
		{
			name: "all caps and camel case ignored",
			text: "UAE trip via McDonald stop",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPlaces(tt.text))
		})
	}
}

func TestPlaceImageFormatAndRange(t *testing.T) {
	p := NewProcessor(testBase, nil)
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(testBase) + `\?New%20York&sig=(\d+)$`)
	for i := 0; i < 500; i++ {
		u := p.PlaceImage("New York")
		m := pattern.FindStringSubmatch(u)
		require.NotNil(t, m, "unexpected url %q", u)
		sig, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sig, 1)
		assert.LessOrEqual(t, sig, SigMax)
	}
}

func TestPlaceImageBounds(t *testing.T) {
	assert.Equal(t, testBase+"?travel&sig=1", NewProcessor(testBase, fixedRand{n: 0}).PlaceImage(""))
	assert.Equal(t, testBase+"?Rome&sig=9999999", NewProcessor(testBase, fixedRand{n: SigMax - 1}).PlaceImage("Rome"))
}

func TestProcessInvariants(t *testing.T) {
	inputs := []string{
		"",
		"plain text only",
		"![](a)![](b)![c](d)",
		"Day 1: Dubai Mall ![](http://x/mall.png)\nDay 2: Palm Jumeirah and Burj Khalifa ![skyline](http://x/burj.png)",
		"The Best Quick Options for Your Trip: Abu Dhabi, Sharjah, Ajman, Fujairah, Ras Al Khaimah, Al Ain, Hatta, Dibba",
		"![broken](http://x/a.png missing paren\nMorning in Muscat",
	}
	p := NewProcessor(testBase, nil)
	for _, raw := range inputs {
		got := p.Process(raw)
		wantImages := len(ExtractImages(raw)) + len(got.Places)
		assert.Len(t, got.Images, wantImages, "raw=%q", raw)
		assert.False(t, imageTagPattern.MatchString(got.Answer), "answer still has image tag: %q", got.Answer)
		assert.LessOrEqual(t, len(got.Places), MaxPlaces)

		seen := map[string]bool{}
		for _, place := range got.Places {
			_, banned := placeBlacklist[place]
			assert.False(t, banned, "blacklisted place %q", place)
			assert.False(t, seen[place], "duplicate place %q", place)
			seen[place] = true
		}
	}
}

func TestProcessIsIdempotentOnAnswer(t *testing.T) {
	p := NewProcessor(testBase, fixedRand{n: 6})
	raw := "![](http://x/1.png) Explore Kyoto and Nara ![](http://x/2.png)"
	first := p.Process(raw)
	second := p.Process(first.Answer)

	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, first.Places, second.Places)
	assert.Equal(t, first.Images[2:], second.Images)
}
