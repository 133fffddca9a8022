package routes

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type pager struct {
	number int
	size   int
	bad    bool
}

// newPager reads ?page and ?page_size. A malformed page number is only
// reported once the total is known, by ok.
func newPager(r *http.Request) pager {
	p := pager{number: 1, size: defaultPageSize}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" && raw != "last" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			p.bad = true
		}
		p.number = n
	}
	if raw := q.Get("page_size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.size = min(n, maxPageSize)
		}
	}
	if q.Get("page") == "last" {
		p.number = -1
	}
	return p
}

func (p *pager) pages(count int) int {
	return max(1, (count+p.size-1)/p.size)
}

// ok resolves "last" and writes a 404 when the page does not exist.
func (p *pager) ok(w http.ResponseWriter, r *http.Request, count int) bool {
	if p.number == -1 {
		p.number = p.pages(count)
	}
	if p.bad || p.number > p.pages(count) {
		httpx.LogStatus(w, r, http.StatusNotFound, log.DebugLevel, "request.pagination", httpx.DetailBadPage)
		return false
	}
	return true
}

func (p pager) offset() int {
	return (p.number - 1) * p.size
}

func (p pager) link(r *http.Request, number int) *string {
	u := url.URL{Path: r.URL.Path}
	q := r.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func page[T any](r *http.Request, p pager, count int, results []T) model.Page[T] {
	out := model.Page[T]{Count: count, Results: results}
	if p.number < p.pages(count) {
		out.Next = p.link(r, p.number+1)
	}
	if p.number > 1 {
		out.Previous = p.link(r, p.number-1)
	}
	return out
}
