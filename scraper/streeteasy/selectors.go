package streeteasy

// BaseURL is the site origin relative listing links are resolved against.
const BaseURL = "https://streeteasy.com"

// Listing card (fragment) selectors, tried in order.
var fragmentSelectors = []string{
	"div.listingCard",
	"article[data-testid='listing-card']",
	"li[data-testid='search-result']",
}

// Required-element selectors the fetcher waits on before the page is
// considered rendered.
var WaitSelectors = []string{
	"div.listingCard",
	"article[data-testid='listing-card']",
}

// Contact affordance selectors on a listing detail page, tried in order.
var ContactSelectors = []string{
	"button[data-testid='contact-button']",
	"button.contact-button",
	"a[href*='contact']",
	".listing-agent-contact button",
}

// Inquiry form field selectors, one ordered fallback list per field.
var (
	MessageSelectors = []string{"textarea[name='message']", "textarea", "#message", ".message-input"}
	NameSelectors    = []string{"input[name='name']", "#name", "input[placeholder*='name']"}
	EmailSelectors   = []string{"input[name='email']", "#email", "input[type='email']"}
	PhoneSelectors   = []string{"input[name='phone']", "#phone", "input[type='tel']"}
)
