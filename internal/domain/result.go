package domain

// Source tells which URL of a row produced the result.
type Source string

const (
	SourceMainURL    Source = "main_url"
	SourceCommentURL Source = "comment_url"
)

// ExtractionResult is what a publisher handler finds in one document.
// Empty strings mean the value was not found.
type ExtractionResult struct {
	DOI      string
	Abstract string
	Title    string
	Method   string
	Pattern  string
	IDs      ArticleIDs
	// PaperURL is the cited paper when the page only reports on it.
	PaperURL string
}

// HasDOI reports whether a DOI was extracted.
func (r ExtractionResult) HasDOI() bool { return r.DOI != "" }

// HasAbstract reports whether an abstract was extracted.
func (r ExtractionResult) HasAbstract() bool { return r.Abstract != "" }

// Complete is true when nothing is left to look up elsewhere.
func (r ExtractionResult) Complete() bool {
	return r.HasDOI() && r.HasAbstract() && r.Title != ""
}

// Usable is true when the extraction produced anything worth keeping.
func (r ExtractionResult) Usable() bool { return r.HasDOI() || r.HasAbstract() }

// FetchResult is the outcome for one processed row. It is built once and not mutated afterwards.
type FetchResult struct {
	URL              string
	RequestedURL     string
	Success          bool
	DOIFound         bool
	AbstractFound    bool
	DOI              string
	Abstract         string
	Title            string
	PMID             string
	PMCID            string
	PaperURL         string
	ExtractionMethod string
	Pattern          string
	Enriched         bool
	Error            string
	ErrorKind        ErrorKind
	Source           Source
	Category         Category
	Domain           string
}

// WithRow returns a copy of r labelled with the row's category and domain.
func (r FetchResult) WithRow(category Category, domain string) FetchResult {
	r.Category = category
	r.Domain = domain
	return r
}

// ArticleIDs are the database identifiers of an article besides its DOI.
type ArticleIDs struct {
	PMID  string
	PMCID string
}

// Empty reports whether no identifier is known.
func (ids ArticleIDs) Empty() bool { return ids.PMID == "" && ids.PMCID == "" }

// Paper is what an external index knows about a DOI.
type Paper struct {
	Title    string
	Abstract string
}

// Conversion is the NCBI record of one article identifier.
type Conversion struct {
	DOI   string
	PMID  string
	PMCID string
}
