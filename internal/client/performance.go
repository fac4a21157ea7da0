package client

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/dbconsole/dbconsole/internal/model"
)

const performancePath = "/api/performance"

// SlowQueries returns the slowest statements of the target database.
func (c *Client) SlowQueries(ctx context.Context, target model.Connection) ([]model.SlowQuery, error) {
	const op = "performance.slow_queries"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     performancePath + "/slow-queries",
		query:    target.Values(),
		fallback: "error while fetching slow queries",
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON[[]model.SlowQuery](op, body)
}

// TuneQuery runs the tuning advisor on one statement.
func (c *Client) TuneQuery(ctx context.Context, target model.Connection, sqlID string) (*model.TuningResult, error) {
	const op = "performance.tune_query"
	body, err := c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     performancePath + "/tune-query",
		query:    withTarget(target.Values(), url.Values{"sqlId": {sqlID}}),
		fallback: "error while tuning statement " + sqlID,
	})
	if err != nil {
		return nil, err
	}
	res, err := decodeJSON[model.TuningResult](op, body)
	if err != nil {
		return nil, err
	}
	if res.SQLID == "" {
		res.SQLID = sqlID
	}
	return &res, nil
}

// Report is a performance report streamed from the backend.
type Report struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Report opens an AWR or ASH report. The caller must close Body.
func (c *Client) Report(ctx context.Context, kind model.ReportKind) (*Report, error) {
	op := "performance.report_" + string(kind)
	if err := model.ValidateReportKind(kind); err != nil {
		return nil, &Error{Op: op, Message: err.Error(), Err: err}
	}

	base, hc := c.snapshot()
	resp, err := c.open(ctx, hc, base+"/performance/"+string(kind)+"Report", request{
		op:       op,
		method:   http.MethodGet,
		fallback: "error while downloading the report",
	})
	if err != nil {
		return nil, err
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "text/plain; charset=utf-8"
	}
	return &Report{Body: resp.Body, ContentType: ct, Filename: kind.Filename()}, nil
}
