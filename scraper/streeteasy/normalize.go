package streeteasy

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/models"
)

// nonDigit strips everything but digits out of price text.
var nonDigit = regexp.MustCompile(`[^\d]`)

// SearchURL builds the for-rent search URL for one neighborhood slug.
func SearchURL(slug string, cr config.Criteria) string {
	return fmt.Sprintf("%s/for-rent/%s/price:%d-%d%%7Cbeds:%d",
		BaseURL, slug, cr.MinRent, cr.MaxRent, cr.Bedrooms)
}

// ParseRent converts raw price text ("$2,650/month") to whole dollars.
// Text with no digits parses to 0.
func ParseRent(text string) int {
	digits := nonDigit.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	rent, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return rent
}

// AbsoluteURL resolves a listing href against the site origin. Absolute
// URLs pass through unchanged; unparseable hrefs resolve to "".
func AbsoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, _ := url.Parse(BaseURL)
	return base.ResolveReference(ref).String()
}

// TitleCaseSlug converts a hyphenated slug to display form:
// "east-harlem" → "East Harlem". The slug stays the fetch identity.
func TitleCaseSlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// InRange reports whether rent falls inside the active search window,
// bounds inclusive.
func InRange(rent int, cr config.Criteria) bool {
	return rent >= cr.MinRent && rent <= cr.MaxRent
}

// Normalize assembles one canonical listing record from a raw fragment.
// Every field resolves independently; a miss degrades to its default.
func Normalize(frag *goquery.Selection, slug string, now time.Time) models.Listing {
	address, ok := ExtractField(frag, FieldAddress)
	if !ok {
		address = "Unknown Address"
	}
	priceText, _ := ExtractField(frag, FieldPrice)
	href, _ := ExtractField(frag, FieldLink)
	image, _ := ExtractField(frag, FieldImage)
	_, noFee := ExtractField(frag, FieldNoFee)

	return models.Listing{
		URL:          AbsoluteURL(href),
		Address:      address,
		Rent:         ParseRent(priceText),
		Neighborhood: TitleCaseSlug(slug),
		ImageURL:     image,
		NoFee:        noFee,
		Notes:        "Auto-scraped from StreetEasy",
		Status:       models.StatusNew,
		DiscoveredAt: now,
	}
}
