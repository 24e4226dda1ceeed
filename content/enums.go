// Package content defines the domain model shared by the generation
// pipeline: requests, attempts, quality scores, sessions.
package content

// Country is a supported target country.
type Country string

const (
	CountryUS Country = "US"
	CountryCN Country = "CN"
	CountryJP Country = "JP"
	CountryFR Country = "FR"
	CountryDE Country = "DE"
	CountryUK Country = "UK"
	CountryKR Country = "KR"
	CountryIN Country = "IN"
	CountryBR Country = "BR"
	CountryES Country = "ES"
)

// Industry is a supported content industry.
type Industry string

const (
	IndustryGeneral    Industry = "general"
	IndustryFinance    Industry = "finance"
	IndustryHealth     Industry = "health"
	IndustryEducation  Industry = "education"
	IndustryGaming     Industry = "gaming"
	IndustryTechnology Industry = "technology"
	IndustryLifestyle  Industry = "lifestyle"
	IndustryBusiness   Industry = "business"
	IndustryTravel     Industry = "travel"
	IndustryFood       Industry = "food"
)

// Platform is a supported publishing platform.
type Platform string

const (
	PlatformMedium      Platform = "medium"
	PlatformZhihu       Platform = "zhihu"
	PlatformTwitter     Platform = "twitter"
	PlatformXiaohongshu Platform = "xiaohongshu"
	PlatformWeChat      Platform = "wechat"
	PlatformLinkedIn    Platform = "linkedin"
	PlatformSubstack    Platform = "substack"
	PlatformNote        Platform = "note"
	PlatformBlog        Platform = "blog"
)

// LongForm reports whether the platform expects long-form articles with
// section headers rather than short social posts.
func (p Platform) LongForm() bool {
	switch p {
	case PlatformMedium, PlatformSubstack, PlatformBlog, PlatformWeChat, PlatformNote:
		return true
	}
	return false
}

// Tone is the requested writing tone.
type Tone string

const (
	ToneProfessional  Tone = "professional"
	ToneCasual        Tone = "casual"
	ToneEntertaining  Tone = "entertaining"
	ToneAnalytical    Tone = "analytical"
	ToneInspirational Tone = "inspirational"
	ToneNeutral       Tone = "neutral"
)

// Goal is the engagement goal the content should serve.
type Goal string

const (
	GoalEngagement Goal = "engagement"
	GoalConversion Goal = "conversion"
	GoalShares     Goal = "shares"
	GoalComments   Goal = "comments"
	GoalFollowers  Goal = "followers"
	GoalAwareness  Goal = "awareness"
)

// Format selects an output encoding for rendered content.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatPlain    Format = "plain"
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatJSON:
		return "json"
	case FormatPlain:
		return "txt"
	default:
		return "md"
	}
}

var countryLanguages = map[Country]string{
	CountryUS: "en",
	CountryCN: "zh",
	CountryJP: "ja",
	CountryFR: "fr",
	CountryDE: "de",
	CountryUK: "en",
	CountryKR: "ko",
	CountryIN: "en",
	CountryBR: "pt",
	CountryES: "es",
}

// LanguageFor returns the default language code for a country, "en" when
// the country is unknown.
func LanguageFor(c Country) string {
	if lang, ok := countryLanguages[c]; ok {
		return lang
	}
	return "en"
}

// Countries lists all supported countries.
func Countries() []Country {
	return []Country{
		CountryUS, CountryCN, CountryJP, CountryFR, CountryDE,
		CountryUK, CountryKR, CountryIN, CountryBR, CountryES,
	}
}

// Industries lists all supported industries.
func Industries() []Industry {
	return []Industry{
		IndustryGeneral, IndustryFinance, IndustryHealth, IndustryEducation,
		IndustryGaming, IndustryTechnology, IndustryLifestyle,
		IndustryBusiness, IndustryTravel, IndustryFood,
	}
}

// Platforms lists all supported platforms.
func Platforms() []Platform {
	return []Platform{
		PlatformMedium, PlatformZhihu, PlatformTwitter, PlatformXiaohongshu,
		PlatformWeChat, PlatformLinkedIn, PlatformSubstack, PlatformNote,
		PlatformBlog,
	}
}

// Formats lists the supported output formats.
func Formats() []Format {
	return []Format{FormatMarkdown, FormatHTML, FormatJSON, FormatPlain}
}

// Tones lists all supported tones.
func Tones() []Tone {
	return []Tone{
		ToneProfessional, ToneCasual, ToneEntertaining,
		ToneAnalytical, ToneInspirational, ToneNeutral,
	}
}

// Goals lists all supported goals.
func Goals() []Goal {
	return []Goal{
		GoalEngagement, GoalConversion, GoalShares,
		GoalComments, GoalFollowers, GoalAwareness,
	}
}

func (c Country) Valid() bool {
	_, ok := countryLanguages[c]
	return ok
}

func (i Industry) Valid() bool {
	for _, v := range Industries() {
		if i == v {
			return true
		}
	}
	return false
}

func (p Platform) Valid() bool {
	for _, v := range Platforms() {
		if p == v {
			return true
		}
	}
	return false
}

func (t Tone) Valid() bool {
	for _, v := range Tones() {
		if t == v {
			return true
		}
	}
	return false
}

func (g Goal) Valid() bool {
	for _, v := range Goals() {
		if g == v {
			return true
		}
	}
	return false
}

func (f Format) Valid() bool {
	switch f {
	case FormatMarkdown, FormatHTML, FormatJSON, FormatPlain:
		return true
	}
	return false
}
