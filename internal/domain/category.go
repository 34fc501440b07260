package domain

// Category is a coarse classification of where a URL comes from.
type Category string

const (
	CategoryRepo        Category = "repo"
	CategoryScientific  Category = "scientific"
	CategoryNews        Category = "news"
	CategorySocialMedia Category = "social_media"
	CategoryScam        Category = "scam"
	CategoryUnknown     Category = "unknown"
)

// CategoryPriority is the order in which category rules are evaluated.
var CategoryPriority = []Category{
	CategoryRepo,
	CategoryScientific,
	CategoryNews,
	CategorySocialMedia,
	CategoryScam,
}

// FetchCategories lists the categories whose rows are fetched, in processing order.
var FetchCategories = []Category{CategoryRepo, CategoryScientific, CategoryNews}

// Fetchable reports whether rows of this category are worth a network call.
func (c Category) Fetchable() bool {
	for _, fc := range FetchCategories {
		if c == fc {
			return true
		}
	}
	return false
}

// ParseCategory maps a label back to a known category, falling back to unknown.
func ParseCategory(label string) Category {
	for _, c := range CategoryPriority {
		if string(c) == label {
			return c
		}
	}
	return CategoryUnknown
}

// Row is one input record as supplied by the row source.
type Row struct {
	Index    int
	URL      string
	Domain   string
	Comment  string
	Category Category
}
