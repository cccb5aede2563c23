package productcontroller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/models"
)

func queryContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/search?"+rawQuery, nil)
	return c
}

func TestParseQuery(t *testing.T) {
	c := queryContext("q=+go+&category=Design,Programming&category=Business&type=book&difficulty=beginner&minPrice=5&minRating=4.5&sort=price-low")
	q, err := parseQuery(c, catalog.SortRelevance)
	require.NoError(t, err)

	assert.Equal(t, "go", q.Text)
	assert.Equal(t, []string{"Design", "Programming", "Business"}, q.Categories)
	assert.Equal(t, []models.Kind{models.KindBook}, q.Types)
	assert.Equal(t, []models.Level{models.LevelBeginner}, q.Difficulties)
	assert.Equal(t, 5.0, q.MinPrice)
	assert.Equal(t, float64(catalog.DefaultMaxPrice), q.MaxPrice)
	assert.Equal(t, 4.5, q.MinRating)
	assert.Equal(t, catalog.SortPriceLow, q.Sort)
}

func TestParseQuery_Defaults(t *testing.T) {
	q, err := parseQuery(queryContext(""), catalog.SortPopular)
	require.NoError(t, err)
	assert.Empty(t, q.Text)
	assert.Empty(t, q.Categories)
	assert.Equal(t, catalog.SortPopular, q.Sort)
	assert.Equal(t, float64(catalog.DefaultMinPrice), q.MinPrice)
}

func TestParseQuery_Errors(t *testing.T) {
	for _, raw := range []string{
		"type=video",
		"difficulty=expert",
		"maxPrice=lots",
		"minRating=x",
		"sort=alphabetical",
	} {
		_, err := parseQuery(queryContext(raw), catalog.SortRelevance)
		assert.Error(t, err, raw)
	}
}

func TestPageParam(t *testing.T) {
	page, err := pageParam(queryContext("page=3"))
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	page, err = pageParam(queryContext(""))
	require.NoError(t, err)
	assert.Equal(t, 1, page)

	_, err = pageParam(queryContext("page=-1"))
	assert.Error(t, err)
}

func TestSearch_EchoesNormalizedQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/search", Search(catalog.NewStatic(nil, nil)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search?q=%20ReAct%20", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"query":"react"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search", nil))
	assert.Contains(t, w.Body.String(), `"query":null`)
}
