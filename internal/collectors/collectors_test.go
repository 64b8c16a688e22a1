package collectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `
<html>
<body>
  <p>Software Engineer with 3 years of experience in AI.</p>
  <ul>
    <li>Python</li>
    <li>FastAPI</li>
    <li>React</li>
  </ul>
  <a href="https://github.com/example">GitHub</a>
  <a>no href</a>
  <a href="">empty href</a>
</body>
</html>
`

func TestExtractResumeFeatures(t *testing.T) {
	features := ExtractResumeFeatures(sampleResume)

	assert.Equal(t, []string{"Python", "FastAPI", "React"}, features.Keywords)
	assert.Equal(t, 1, features.Paragraphs)
	assert.Equal(t, []string{"https://github.com/example"}, features.Links)
	// 9 paragraph words + 3 list items + "GitHub" + "no href" + "empty href"
	assert.Equal(t, 17, features.WordCount)
	assert.Equal(t, 17.0, features.KeywordDensity)
}

func TestExtractResumeFeatures_NoParagraphs(t *testing.T) {
	features := ExtractResumeFeatures(`<ul><li>Go</li><li>Rust</li><li>SQL</li></ul><div>one two</div>`)

	assert.Equal(t, 0, features.Paragraphs)
	assert.Equal(t, 5, features.WordCount)
	assert.Equal(t, 5.0, features.KeywordDensity)
}

func TestExtractResumeFeatures_KeywordCap(t *testing.T) {
	doc := "<ul>"
	for i := 0; i < 30; i++ {
		doc += "<li>skill</li>"
	}
	doc += "</ul>"

	features := ExtractResumeFeatures(doc)
	assert.Len(t, features.Keywords, maxKeywords)
}

func TestExtractResumeFeatures_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"plain text", "just some words"},
		{"unclosed tags", "<p><li><a href='x'"},
		{"garbage", "<<<>>>&&&"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				features := ExtractResumeFeatures(tt.input)
				assert.NotNil(t, features.Keywords)
				assert.NotNil(t, features.Links)
				assert.GreaterOrEqual(t, features.WordCount, 0)
			})
		})
	}
}

func TestExtractResumeFeatures_IgnoresScripts(t *testing.T) {
	features := ExtractResumeFeatures(`<p>hello world</p><script>var a = 1; alert(a)</script><style>p { color: red }</style>`)
	assert.Equal(t, 2, features.WordCount)
	assert.Equal(t, 2.0, features.KeywordDensity)
}

func TestExtractResumeFeatures_CountsNoscriptText(t *testing.T) {
	features := ExtractResumeFeatures(`<p>hello world</p><noscript>enable javascript please</noscript>`)
	assert.Equal(t, 5, features.WordCount)
}

func TestExtractResumeFeatures_KeywordTextJoinsPieces(t *testing.T) {
	features := ExtractResumeFeatures(`<ul><li>Go <b>lang</b></li><li>  Distributed  systems </li><li><i> </i></li></ul>`)
	assert.Equal(t, []string{"Golang", "Distributed  systems", ""}, features.Keywords)
}

func TestExtractResumeFeatures_DensityRounding(t *testing.T) {
	features := ExtractResumeFeatures(`<p>one two</p><p>three four</p><p>five six seven</p>`)
	assert.Equal(t, 3, features.Paragraphs)
	assert.Equal(t, 7, features.WordCount)
	assert.Equal(t, 2.33, features.KeywordDensity)
}

func TestResumeCollector_Collect(t *testing.T) {
	payload, err := NewResumeCollector().Collect(context.Background(), sampleResume)
	require.NoError(t, err)
	features, ok := payload.(ResumeFeatures)
	require.True(t, ok)
	assert.NotEmpty(t, features.Keywords)
}

func TestGitHubCollector_Success(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"octocat","name":"The Octocat","public_repos":8,"followers":100,"following":9,"created_at":"2011-01-25T18:44:36Z"}`))
	}))
	defer server.Close()

	collector := NewGitHubCollector(GitHubOptions{BaseURL: server.URL + "/", Token: "secret"})
	payload, err := collector.Collect(context.Background(), "octocat")
	require.NoError(t, err)

	summary, ok := payload.(GitHubSummary)
	require.True(t, ok)
	require.NotNil(t, summary.Username)
	assert.Equal(t, "octocat", *summary.Username)
	require.NotNil(t, summary.Name)
	assert.Equal(t, "The Octocat", *summary.Name)
	assert.Equal(t, 8, summary.PublicRepos)
	assert.Equal(t, 100, summary.Followers)
	assert.Equal(t, 9, summary.Following)
	require.NotNil(t, summary.ProfileCreatedAt)
	assert.Equal(t, "2011-01-25T18:44:36Z", *summary.ProfileCreatedAt)

	assert.Equal(t, "/users/octocat", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestGitHubCollector_MissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"login":"ghost"}`))
	}))
	defer server.Close()

	payload, err := NewGitHubCollector(GitHubOptions{BaseURL: server.URL}).Collect(context.Background(), "ghost")
	require.NoError(t, err)

	summary := payload.(GitHubSummary)
	assert.Nil(t, summary.Name)
	assert.Nil(t, summary.ProfileCreatedAt)
	assert.Equal(t, 0, summary.PublicRepos)
	assert.Equal(t, 0, summary.Followers)
	assert.Equal(t, 0, summary.Following)
}

func TestGitHubCollector_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	collector := NewGitHubCollector(GitHubOptions{BaseURL: server.URL})
	outcome := Run[string](context.Background(), collector, "nobody")

	assert.False(t, outcome.OK())
	assert.Equal(t, SourceGitHub, outcome.Source)
	assert.Nil(t, outcome.Payload)
	assert.Equal(t, map[string]string{"error": "Unable to fetch GitHub profile"}, outcome.Summary())
}

func TestGitHubCollector_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	collector := NewGitHubCollector(GitHubOptions{BaseURL: server.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := collector.Collect(context.Background(), "slow")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	var cErr *Error
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, GitHubFailureMessage, cErr.Message)
}

func TestGitHubCollector_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGitHubCollector(GitHubOptions{BaseURL: server.URL}).Collect(ctx, "octocat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLinkedInCollector(t *testing.T) {
	tests := []struct {
		name        string
		input       map[string]any
		wantDensity float64
		wantSkills  []string
		wantRecs    int
	}{
		{
			name: "headline with skills",
			input: map[string]any{
				"headline":        "Senior Backend Engineer",
				"skills":          []any{"Go", "Postgres", "Kubernetes", "gRPC"},
				"recommendations": float64(5),
			},
			wantDensity: 1.33,
			wantSkills:  []string{"Go", "Postgres", "Kubernetes", "gRPC"},
			wantRecs:    5,
		},
		{
			name: "empty headline",
			input: map[string]any{
				"headline": "",
				"skills":   []any{"Go"},
			},
			wantDensity: 0.0,
			wantSkills:  []string{"Go"},
		},
		{
			name:        "missing fields",
			input:       map[string]any{},
			wantDensity: 0.0,
			wantSkills:  []string{},
		},
		{
			name: "headline without skills",
			input: map[string]any{
				"headline": "Engineer",
			},
			wantDensity: 0.0,
			wantSkills:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := NewLinkedInCollector().Collect(context.Background(), tt.input)
			require.NoError(t, err)

			summary, ok := payload.(LinkedInSummary)
			require.True(t, ok)
			assert.Equal(t, tt.wantDensity, summary.SkillDensity)
			assert.Equal(t, tt.wantSkills, summary.Skills)
			assert.Equal(t, tt.wantRecs, summary.Recommendations)
		})
	}
}

func TestAggregateCPRatings(t *testing.T) {
	assert.Equal(t, CPSummary{Average: 0, Attempts: 0}, AggregateCPRatings(nil))
	assert.Equal(t, CPSummary{Average: 0, Attempts: 0}, AggregateCPRatings([]int{}))
	assert.Equal(t, CPSummary{Average: 1400.0, Attempts: 3}, AggregateCPRatings([]int{1200, 1400, 1600}))
	assert.Equal(t, CPSummary{Average: 1333.33, Attempts: 3}, AggregateCPRatings([]int{1000, 1500, 1500}))
}

type failingCollector struct{}

func (failingCollector) Source() Source { return SourceCP }

func (failingCollector) Collect(context.Context, []int) (any, error) {
	return nil, errors.New("boom")
}

func TestRun_WrapsForeignErrors(t *testing.T) {
	outcome := Run[[]int](context.Background(), failingCollector{}, []int{1})
	require.False(t, outcome.OK())
	assert.Equal(t, SourceCP, outcome.Err.Source)
	assert.EqualError(t, outcome.Err.Unwrap(), "boom")
	assert.Equal(t, map[string]string{"error": "Unable to process cp data"}, outcome.Summary())
}

func TestRun_Success(t *testing.T) {
	outcome := Run[[]int](context.Background(), NewCPCollector(), []int{10, 20})
	require.True(t, outcome.OK())
	assert.Equal(t, CPSummary{Average: 15, Attempts: 2}, outcome.Summary())
}

func TestSources(t *testing.T) {
	assert.Equal(t, []Source{SourceResume, SourceGitHub, SourceLinkedIn, SourceCP}, Sources())
	for _, s := range Sources() {
		assert.True(t, s.Valid())
	}
	assert.False(t, Source("twitter").Valid())
}
