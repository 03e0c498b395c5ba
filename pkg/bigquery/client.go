package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

const (
	metadataTimeout = 10 * time.Second
	jobLabel        = "yoypulse"
)

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errDatasetRequired      = errors.New("bigquery dataset is required")
	errTableNameRequired    = errors.New("bigquery sales table is required")
	errClientNotInitialized = errors.New("bigquery client not initialized")

	// ErrMissing wraps a 404 on the dataset or the sales table.
	ErrMissing = errors.New("bigquery resource missing")
)

// RowIterator is the part of *bigquery.RowIterator the scanners use.
type RowIterator interface {
	Next(dst any) error
}

// Client reads the customer_weekly_sales table. Every query is labelled,
// bounded by QueryTimeout and optionally capped by MaxBytesBilled.
type Client struct {
	bq      *bigquery.Client
	dataset *bigquery.Dataset
	table   string
	project string

	timeout    time.Duration
	location   string
	bytesLimit int64
}

// NewClient dials BigQuery and checks that the dataset and sales table exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	dataset := strings.TrimSpace(cfg.Dataset)
	table := strings.TrimSpace(cfg.SalesTable)
	switch {
	case project == "":
		return nil, errProjectIDRequired
	case dataset == "":
		return nil, errDatasetRequired
	case table == "":
		return nil, errTableNameRequired
	}

	bq, err := bigquery.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	if cfg.Location != "" {
		bq.Location = cfg.Location
	}
	c := &Client{
		bq:         bq,
		dataset:    bq.Dataset(dataset),
		table:      table,
		project:    project,
		timeout:    cfg.QueryTimeout,
		location:   cfg.Location,
		bytesLimit: cfg.MaxBytesBilled,
	}
	if err := c.Ping(ctx); err != nil {
		_ = bq.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project": project,
			"dataset": dataset,
			"table":   table,
		}), "bigquery ready")
	}
	return c, nil
}

// clientOptions prefers inline JSON credentials over a credentials file.
// Neither means application default credentials.
func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (c *Client) ProjectID() string {
	if c == nil {
		return ""
	}
	return c.project
}

func (c *Client) DatasetID() string {
	if c == nil || c.dataset == nil {
		return ""
	}
	return c.dataset.DatasetID
}

// Ping reads dataset and table metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return errClientNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		return describe("dataset", c.dataset.DatasetID, err)
	}
	if _, err := c.dataset.Table(c.table).Metadata(ctx); err != nil {
		return describe("table", c.table, err)
	}
	return nil
}

// Query runs sql with named parameters and hands the iterator to scan.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter, scan func(RowIterator) error) error {
	if c == nil || c.bq == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return errors.New("sql query is required")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	q := c.bq.Query(sql)
	q.Parameters = params
	q.Labels = map[string]string{"app": jobLabel, "table": labelValue(c.table)}
	if c.bytesLimit > 0 {
		q.MaxBytesBilled = c.bytesLimit
	}
	if c.location != "" {
		q.Location = c.location
	}

	it, err := q.Read(ctx)
	if err != nil {
		return fmt.Errorf("bigquery read: %w", err)
	}
	return scan(it)
}

func (c *Client) Close() error {
	if c == nil || c.bq == nil {
		return nil
	}
	return c.bq.Close()
}

func describe(kind, name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %s %q", ErrMissing, kind, name)
	}
	return fmt.Errorf("checking %s %q: %w", kind, name, err)
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

// labelValue keeps to the lowercase, digit, dash and underscore set that
// BigQuery job labels accept.
func labelValue(v string) string {
	v = strings.ToLower(v)
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v) && len(out) < 63; i++ {
		ch := v[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-', ch == '_':
			out = append(out, ch)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
