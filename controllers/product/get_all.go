package productcontroller

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vin-devs/learnsite/catalog"
	"github.com/vin-devs/learnsite/models"
)

// multi collects a filter given either as repeated params or as one
// comma-separated value: ?category=a&category=b or ?category=a,b.
func multi(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func floatParam(c *gin.Context, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

// parseQuery builds a catalog query from request params. defaultSort is used
// when no sort param is given.
func parseQuery(c *gin.Context, defaultSort catalog.SortKey) (catalog.Query, error) {
	q := catalog.NewQuery()
	q.Text = strings.TrimSpace(c.Query("q"))
	q.Categories = multi(c, "category")

	for _, t := range multi(c, "type") {
		kind, err := models.ParseKind(t)
		if err != nil {
			return q, fmt.Errorf("invalid type %q", t)
		}
		q.Types = append(q.Types, kind)
	}

	for _, d := range multi(c, "difficulty") {
		i := slices.IndexFunc(models.Levels, func(l models.Level) bool {
			return strings.EqualFold(d, string(l))
		})
		if i < 0 {
			return q, fmt.Errorf("invalid difficulty %q", d)
		}
		q.Difficulties = append(q.Difficulties, models.Levels[i])
	}

	var err error
	if q.MinPrice, err = floatParam(c, "minPrice", catalog.DefaultMinPrice); err != nil {
		return q, err
	}
	if q.MaxPrice, err = floatParam(c, "maxPrice", catalog.DefaultMaxPrice); err != nil {
		return q, err
	}
	if q.MinRating, err = floatParam(c, "minRating", 0); err != nil {
		return q, err
	}

	q.Sort = defaultSort
	if raw := c.Query("sort"); raw != "" {
		if q.Sort, err = catalog.ParseSortKey(raw); err != nil {
			return q, fmt.Errorf("invalid sort %q", raw)
		}
	}
	return q, nil
}

func pageParam(c *gin.Context) (int, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page")
	}
	return page, nil
}

// GET /search?q&category&type&minPrice&maxPrice&difficulty&minRating&sort&page
func Search(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1️⃣ Filters
		q, err := parseQuery(c, catalog.SortRelevance)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// 2️⃣ Filter then sort
		results := cat.Search(q)

		var query any
		if q.Text != "" {
			query = strings.ToLower(q.Text)
		}
		resp := gin.H{
			"results": results,
			"total":   len(results),
			"query":   query,
		}

		// 3️⃣ Optional pagination
		if c.Query("page") != "" {
			page, err := pageParam(c)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			resp["results"] = catalog.Paginate(results, page, catalog.PageSize)
			resp["page"] = page
			resp["totalPages"] = catalog.TotalPages(len(results), catalog.PageSize)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListProducts serves /products, /courses and /books. An empty kind lists
// the whole catalog. Listings default to the popular sort and are paginated.
func ListProducts(cat *catalog.Catalog, kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseQuery(c, catalog.SortPopular)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if kind != "" {
			q.Types = []models.Kind{kind}
		}
		page, err := pageParam(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		results := cat.Search(q)
		c.JSON(http.StatusOK, gin.H{
			"products":   catalog.Paginate(results, page, catalog.PageSize),
			"total":      len(results),
			"page":       page,
			"totalPages": catalog.TotalPages(len(results), catalog.PageSize),
		})
	}
}
