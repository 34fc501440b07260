package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRatesAreZeroWithoutDenominator(t *testing.T) {
	t.Parallel()

	var cs CategoryStats
	require.Zero(t, cs.SuccessRate())
	require.Zero(t, cs.DOIRate())
	require.Zero(t, cs.AbstractRate())

	var ps PublisherStats
	require.Zero(t, ps.DOIRate())
	require.Zero(t, ps.AbstractRate())

	var totals Totals
	require.Zero(t, totals.DOIPercent())
	require.Zero(t, totals.AbstractPercent())
}

func TestRunStatsFold(t *testing.T) {
	t.Parallel()

	stats := NewRunStats()
	stats.Fold(FetchResult{Category: CategoryRepo, Success: true, DOIFound: true, AbstractFound: true, ExtractionMethod: "Nature", Source: SourceMainURL})
	stats.Fold(FetchResult{Category: CategoryRepo, Success: true, DOIFound: true, ExtractionMethod: "Nature", Source: SourceCommentURL})
	stats.Fold(FetchResult{Category: CategoryRepo, Error: "boom", ErrorKind: ErrorKindTimeout, Source: SourceMainURL})
	stats.Fold(FetchResult{Category: CategoryNews, Error: "404", ErrorKind: ErrorKindHTTPStatus, Source: SourceMainURL})

	repo := stats.Category(CategoryRepo)
	require.Equal(t, 3, repo.Total)
	require.Equal(t, 2, repo.Successful)
	require.Equal(t, 2, repo.DOIFound)
	require.Equal(t, 1, repo.AbstractFound)
	require.Equal(t, 1, repo.CommentURLsUsed)
	require.InDelta(t, 2.0/3.0, repo.SuccessRate(), 1e-9)
	require.InDelta(t, 1.0, repo.DOIRate(), 1e-9)
	require.InDelta(t, 0.5, repo.AbstractRate(), 1e-9)
	require.Equal(t, "timeout", repo.MostCommonError())
	require.Equal(t, "Nature", repo.TopPublisher())

	news := stats.Category(CategoryNews)
	require.Zero(t, news.DOIRate())
	require.Equal(t, "", news.TopPublisher())

	scam := stats.Category(CategoryScam)
	require.Zero(t, scam.Total)

	pubs := stats.Publishers()
	require.Len(t, pubs, 1)
	require.Equal(t, PublisherStats{Publisher: "Nature", Attempts: 2, DOIs: 2, Abstracts: 1}, pubs[0])

	totals := stats.Totals()
	require.Equal(t, 4, totals.Processed)
	require.InDelta(t, 50.0, totals.DOIPercent(), 1e-9)
	require.InDelta(t, 25.0, totals.AbstractPercent(), 1e-9)
}

func TestRunStatsMergeMatchesSequentialFold(t *testing.T) {
	t.Parallel()

	results := []FetchResult{
		{Category: CategoryRepo, Success: true, DOIFound: true, ExtractionMethod: "Wiley"},
		{Category: CategoryScientific, Success: true, AbstractFound: true, ExtractionMethod: "Generic"},
		{Category: CategoryScientific, Error: "x", ErrorKind: ErrorKindConnection},
		{Category: CategoryNews, Success: true, ExtractionMethod: "Generic"},
	}

	sequential := NewRunStats()
	for _, r := range results {
		sequential.Fold(r)
	}

	left, right := NewRunStats(), NewRunStats()
	for i, r := range results {
		if i%2 == 0 {
			left.Fold(r)
		} else {
			right.Fold(r)
		}
	}
	merged := NewRunStats()
	merged.Merge(left)
	merged.Merge(right)

	require.Equal(t, sequential.Categories(), merged.Categories())
	require.Equal(t, sequential.Publishers(), merged.Publishers())
	require.Equal(t, sequential.Totals(), merged.Totals())
}

func TestCategoriesOrderAndLabels(t *testing.T) {
	t.Parallel()

	stats := NewRunStats()
	stats.Fold(FetchResult{Category: CategoryNews})
	stats.Fold(FetchResult{Category: CategoryRepo})
	stats.Label(CategoryUnknown)
	stats.Label(CategoryScam)
	stats.Label(CategoryRepo)
	stats.Label(CategoryRepo)

	cats := stats.Categories()
	require.Len(t, cats, 2)
	require.Equal(t, CategoryRepo, cats[0].Category)
	require.Equal(t, CategoryNews, cats[1].Category)

	require.Equal(t, []LabelCount{
		{Category: CategoryRepo, Rows: 2},
		{Category: CategoryScam, Rows: 1},
		{Category: CategoryUnknown, Rows: 1},
	}, stats.Labels())
}

func TestMostCommonErrorTieBreaksByName(t *testing.T) {
	t.Parallel()

	cs := CategoryStats{Errors: map[ErrorKind]int{ErrorKindTimeout: 2, ErrorKindConnection: 2}}
	require.Equal(t, "connection", cs.MostCommonError())
}
