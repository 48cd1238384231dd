package streeteasy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field names a semantic listing attribute resolvable from a fragment.
type Field string

const (
	FieldAddress Field = "address"
	FieldPrice   Field = "price"
	FieldLink    Field = "link"
	FieldImage   Field = "image"
	FieldNoFee   Field = "no_fee"
)

// Strategy is one named rule for locating a field within a fragment.
// Strategies for a field are tried in priority order; the first non-empty
// result wins.
type Strategy struct {
	Name  string
	Apply func(*goquery.Selection) string
}

func byText(selector string) func(*goquery.Selection) string {
	return func(frag *goquery.Selection) string {
		return strings.TrimSpace(frag.Find(selector).First().Text())
	}
}

func byAttr(selector, attr string) func(*goquery.Selection) string {
	return func(frag *goquery.Selection) string {
		val, _ := frag.Find(selector).First().Attr(attr)
		return strings.TrimSpace(val)
	}
}

// fieldStrategies maps each field to its ordered fallback list. The markup
// is not under our control and changes without notice; the chains mirror
// the variants observed on real result pages.
var fieldStrategies = map[Field][]Strategy{
	FieldAddress: {
		{Name: "address-tag", Apply: byText("address")},
		{Name: "address-class", Apply: byText("[class*='address']")},
		{Name: "card-title-link", Apply: byText("a[data-testid='listing-card-title']")},
	},
	FieldPrice: {
		{Name: "price-class", Apply: byText("[class*='price']")},
		{Name: "price-testid", Apply: byText("[data-testid='price']")},
	},
	FieldLink: {
		{Name: "rental-href", Apply: byAttr("a[href*='/rental/']", "href")},
		{Name: "building-href", Apply: byAttr("a[href*='/building/']", "href")},
		{Name: "first-href", Apply: byAttr("a", "href")},
	},
	FieldImage: {
		{Name: "img-src", Apply: byAttr("img", "src")},
		{Name: "img-data-src", Apply: byAttr("img", "data-src")},
	},
	FieldNoFee: {
		{Name: "no-fee-class", Apply: byText("[class*='NoFee'], [class*='no-fee']")},
		{Name: "no-fee-text", Apply: func(frag *goquery.Selection) string {
			tag := strings.TrimSpace(frag.Find("[class*='tag'], [class*='banner']").First().Text())
			if strings.Contains(strings.ToUpper(tag), "NO FEE") {
				return tag
			}
			return ""
		}},
	},
}

// ExtractField resolves one field from a fragment via its fallback chain.
// A strategy that panics or yields nothing degrades to the next one; an
// all-miss returns the empty default with matched=false. One field's
// failure never aborts another field or fragment.
func ExtractField(frag *goquery.Selection, field Field) (value string, matched bool) {
	for _, strat := range fieldStrategies[field] {
		if v := applyStrategy(strat, frag); v != "" {
			return v, true
		}
	}
	return "", false
}

func applyStrategy(strat Strategy, frag *goquery.Selection) (value string) {
	defer func() {
		if recover() != nil {
			value = ""
		}
	}()
	return strat.Apply(frag)
}

// Fragments locates the listing card nodes within a rendered search page.
func Fragments(doc *goquery.Document) []*goquery.Selection {
	for _, selector := range fragmentSelectors {
		found := doc.Find(selector)
		if found.Length() == 0 {
			continue
		}
		frags := make([]*goquery.Selection, 0, found.Length())
		found.Each(func(_ int, s *goquery.Selection) {
			frags = append(frags, s)
		})
		return frags
	}
	return nil
}
