package patterns

// DOIMetaNames are bibliographic meta tags carrying a DOI, strongest first.
// Names are compared case-insensitively against the name and property attributes.
var DOIMetaNames = []string{
	"citation_doi",
	"dc.identifier",
	"prism.doi",
	"bepress_citation_doi",
	"doi",
}

// DOIContainerSelectors are generic elements whose class or id hints at a DOI.
var DOIContainerSelectors = []string{
	`[class*="doi"]`,
	`[id*="doi"]`,
	`[class*="identifier"]`,
	`[id*="identifier"]`,
}

// AbstractContainerSelectors are generic dedicated abstract containers.
var AbstractContainerSelectors = []string{
	`#abstract`,
	`section[class*="abstract"]`,
	`div[class*="abstract"]`,
	`div[id*="abstract"]`,
	`p[class*="abstract"]`,
}

// AbstractMetaNames are description meta tags, strongest first.
var AbstractMetaNames = []string{
	"citation_abstract",
	"dc.description",
	"description",
}

// AbstractFallbackMetaNames are social preview tags used as a last resort.
var AbstractFallbackMetaNames = []string{
	"og:description",
	"twitter:description",
}

// AbstractNoiseSelectors are removed from every abstract container before reading text.
var AbstractNoiseSelectors = `h1, h2, h3, h4, h5, h6, script, style, figure, button, .highlights, div.highlights, .section-title`

// TitleMetaNames are bibliographic title tags, strongest first.
var TitleMetaNames = []string{
	"citation_title",
	"dc.title",
	"prism.title",
}

// TitleSelectors are article heading elements tried after the title tags.
var TitleSelectors = []string{
	`h1.c-article-title`,
	`h1[class*="article-title"]`,
	`h1#title`,
	`h1.title`,
	`div.article-title`,
	`h1`,
}

// TitleFallbackMetaNames are social preview tags used as a last resort.
var TitleFallbackMetaNames = []string{
	"og:title",
	"twitter:title",
}
