package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchingest/internal/clock"
	"merchingest/internal/source"
)

const zalandoListing = `<html><body>
<article data-testid="product-card">
  <a href="/levis-jean-slim.html"><img src="https://img01.ztat.net/zalando/jean.jpg?imwidth=300"></a>
  <h3>Jean slim</h3><h2>Levi's</h2><span data-testid="price">89,99 €</span>
</article>
<article data-testid="product-card">
  <a href="/sans-image.html"></a><h3>Sans image</h3>
</article>
<div class="cat_articleCard">
  <a href="https://www.zalando.fr/pull.html"><img src="https://cdn.other.test/pull.jpg?w=200"></a>
  <div class="cat_articleName">Pull col roulé</div>
  <p class="cat_price">49,95 €</p>
</div>
<article data-testid="product-card">
  <a href="/chemise.html"><img src="/chemise.jpg"></a><h3>Chemise</h3>
</article>
</body></html>`

const zalandoItem = `<html><body>
<h1>Jean slim</h1><h2>Levi's</h2>
<span data-testid="price">89,99 €</span>
<img src="https://img01.ztat.net/zalando/jean-large.jpg?imwidth=1800">
<div data-testid="pdp-size-picker"><span>S</span><span>M</span></div>
<div data-testid="pdp-description">Denim stretch</div>
</body></html>`

func staticSource(baseURL string) source.Descriptor {
	reg, _ := source.Default()
	d, _ := reg.Get("zalando")
	d.BaseURL = baseURL
	d.RateLimit = 0
	return d
}

func newStaticServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticExtractor_ScrapeCategory(t *testing.T) {
	queries := make(chan url.Values, 1)
	srv := newStaticServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mode-homme/" {
			http.NotFound(w, r)
			return
		}
		queries <- r.URL.Query()
		_, _ = w.Write([]byte(zalandoListing))
	})
	ex, err := NewStatic(staticSource(srv.URL), Options{
		Clock:   clock.NewFake(time.Now()),
		Filters: Filters{NewArrivalsDays: 7, PriceTo: 100, Order: "newest"},
	})
	require.NoError(t, err)

	products := ex.ScrapeCategory(context.Background(), "mode-homme", 10)

	require.Len(t, products, 3)
	assert.Equal(t, "Jean slim", products[0].Name)
	assert.Equal(t, "Levi's", products[0].Brand)
	assert.Equal(t, "89,99 €", products[0].Price)
	assert.Equal(t, "https://img01.ztat.net/zalando/jean.jpg", products[0].ImageURL)
	assert.Equal(t, srv.URL+"/levis-jean-slim.html", products[0].ItemURL)
	assert.Equal(t, "Levi's - Jean slim", products[0].Description)
	assert.Equal(t, []string{"M"}, products[0].Sizes)

	assert.Equal(t, "Pull col roulé", products[1].Name)
	assert.Equal(t, "Zalando", products[1].Brand)
	assert.Equal(t, "https://cdn.other.test/pull.jpg?w=200", products[1].ImageURL)
	assert.Equal(t, "Zalando - Pull col roulé", products[1].Description)

	assert.Equal(t, "Prix non disponible", products[2].Price)
	assert.Equal(t, srv.URL+"/chemise.jpg", products[2].ImageURL)

	query := <-queries
	assert.Equal(t, "0-7", query.Get("activation_date"))
	assert.Equal(t, "100", query.Get("price_to"))
	assert.Equal(t, "newest", query.Get("order"))
	assert.False(t, query.Has("price_from"))
	assert.False(t, query.Has("brand"))
}

func TestStaticExtractor_ScrapeCategoryLimit(t *testing.T) {
	srv := newStaticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(zalandoListing))
	})
	ex, err := NewStatic(staticSource(srv.URL), Options{Clock: clock.NewFake(time.Now())})
	require.NoError(t, err)

	products := ex.ScrapeCategory(context.Background(), "mode-femme", 1)

	require.Len(t, products, 1)
	assert.Equal(t, "Jean slim", products[0].Name)
}

func TestStaticExtractor_ScrapeItem(t *testing.T) {
	srv := newStaticServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/levis-jean-slim.html" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(zalandoItem))
	})
	ex, err := NewStatic(staticSource(srv.URL), Options{Clock: clock.NewFake(time.Now())})
	require.NoError(t, err)

	rec, ok := ex.ScrapeItem(context.Background(), "/levis-jean-slim.html")

	require.True(t, ok)
	assert.Equal(t, "Jean slim", rec.Name)
	assert.Equal(t, "https://img01.ztat.net/zalando/jean-large.jpg", rec.ImageURL)
	assert.Equal(t, []string{"S", "M"}, rec.Sizes)
	assert.Equal(t, "Denim stretch", rec.Description)
	assert.Equal(t, srv.URL+"/levis-jean-slim.html", rec.ItemURL)
}

func TestStaticExtractor_RetriesServerErrors(t *testing.T) {
	retryInitialInterval = time.Millisecond
	var hits atomic.Int32
	srv := newStaticServer(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(zalandoListing))
	})
	ex, err := NewStatic(staticSource(srv.URL), Options{Clock: clock.NewFake(time.Now()), Retries: 3})
	require.NoError(t, err)

	products := ex.ScrapeCategory(context.Background(), "enfant", 2)

	assert.Len(t, products, 2)
	assert.Equal(t, int32(2), hits.Load())
}

func TestStaticExtractor_NotFoundIsFinal(t *testing.T) {
	retryInitialInterval = time.Millisecond
	var hits atomic.Int32
	srv := newStaticServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	})
	ex, err := NewStatic(staticSource(srv.URL), Options{Clock: clock.NewFake(time.Now()), Retries: 3})
	require.NoError(t, err)

	products := ex.ScrapeCategory(context.Background(), "enfant", 5)

	assert.Empty(t, products)
	assert.Equal(t, int32(1), hits.Load())
}

func TestStaticExtractor_ListingURL(t *testing.T) {
	ex, err := NewStatic(staticSource("https://www.zalando.fr"), Options{Filters: Filters{Brand: "levis"}})
	require.NoError(t, err)

	assert.Equal(t, "https://www.zalando.fr/mode-homme/?brand=levis", ex.ListingURL("mode-homme"))
}

func TestNewStatic_RejectsInvalidFilters(t *testing.T) {
	_, err := NewStatic(staticSource("https://www.zalando.fr"), Options{Filters: Filters{Order: "random"}})

	assert.Error(t, err)
}
