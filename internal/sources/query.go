package sources

import (
	"context"
	"fmt"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/yoypulse/internal/yoy"
	"github.com/angelmondragon/yoypulse/pkg/bigquery"
	"google.golang.org/api/iterator"
)

const (
	populationSQL = `
SELECT
  CustomerID AS customer_id,
  SUM(CY_PurchaseTotal) AS cy_sales,
  SUM(PY_PurchaseTotal) AS py_sales
FROM %s
GROUP BY CustomerID
ORDER BY CustomerID
LIMIT @limit
`

	totalsSQL = `
SELECT
  SUM(CY_PurchaseTotal) AS cy_sales,
  SUM(PY_PurchaseTotal) AS py_sales,
  SUM(CY_COGS) AS cy_cogs,
  SUM(PY_COGS) AS py_cogs,
  SUM(CY_QtySold) AS cy_qty,
  SUM(CY_ReturnQty) AS cy_return_qty,
  SUM(PY_ReturnQty) AS py_return_qty
FROM %s
WHERE CustomerID = @customerID
GROUP BY CustomerID
`

	lineItemsSQL = `
SELECT
  FullSubCommCode AS item_key,
  SUM(CY_PurchaseTotal) AS cy_sales,
  SUM(PY_PurchaseTotal) AS py_sales,
  SUM(CY_QtySold) AS cy_qty,
  SUM(PY_QtySold) AS py_qty
FROM %s
WHERE CustomerID = @customerID
GROUP BY FullSubCommCode
ORDER BY FullSubCommCode
`

	branchesSQL = `
SELECT
  Branch AS branch,
  SUM(CY_PurchaseTotal) AS cy_sales,
  SUM(PY_PurchaseTotal) AS py_sales
FROM %s
WHERE CustomerID = @customerID
GROUP BY Branch
ORDER BY Branch
`

	weeksSQL = `
SELECT
  FORMAT_DATE('W%%V', CY_WeekDate) AS week,
  SUM(CY_PurchaseTotal) AS cy_sales
FROM %s
WHERE CustomerID = @customerID
  AND CY_WeekDate >= DATE_SUB(CURRENT_DATE(), INTERVAL 13 WEEK)
GROUP BY week
ORDER BY MIN(CY_WeekDate)
`
)

// Querier runs parameterized SQL. *bigquery.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter, scan func(bigquery.RowIterator) error) error
	ProjectID() string
	DatasetID() string
}

type populationRow struct {
	CustomerID string                    `bigquery:"customer_id"`
	CYSales    cloudbigquery.NullFloat64 `bigquery:"cy_sales"`
	PYSales    cloudbigquery.NullFloat64 `bigquery:"py_sales"`
}

type totalsRow struct {
	CYSales     cloudbigquery.NullFloat64 `bigquery:"cy_sales"`
	PYSales     cloudbigquery.NullFloat64 `bigquery:"py_sales"`
	CYCOGS      cloudbigquery.NullFloat64 `bigquery:"cy_cogs"`
	PYCOGS      cloudbigquery.NullFloat64 `bigquery:"py_cogs"`
	CYQty       cloudbigquery.NullFloat64 `bigquery:"cy_qty"`
	CYReturnQty cloudbigquery.NullFloat64 `bigquery:"cy_return_qty"`
	PYReturnQty cloudbigquery.NullFloat64 `bigquery:"py_return_qty"`
}

type lineItemRow struct {
	Key     string                    `bigquery:"item_key"`
	CYSales cloudbigquery.NullFloat64 `bigquery:"cy_sales"`
	PYSales cloudbigquery.NullFloat64 `bigquery:"py_sales"`
	CYQty   cloudbigquery.NullFloat64 `bigquery:"cy_qty"`
	PYQty   cloudbigquery.NullFloat64 `bigquery:"py_qty"`
}

type branchRow struct {
	Branch  string                    `bigquery:"branch"`
	CYSales cloudbigquery.NullFloat64 `bigquery:"cy_sales"`
	PYSales cloudbigquery.NullFloat64 `bigquery:"py_sales"`
}

type weekRow struct {
	Week    string                    `bigquery:"week"`
	CYSales cloudbigquery.NullFloat64 `bigquery:"cy_sales"`
}

// QuerySource reads aggregates from the customer_weekly_sales table.
// Every backend failure is reported as ErrDataUnavailable.
type QuerySource struct {
	client Querier
	table  string
}

func NewQuerySource(client Querier, table string) *QuerySource {
	return &QuerySource{client: client, table: strings.TrimSpace(table)}
}

func (s *QuerySource) Mode() Mode { return ModeWarehouse }

func (s *QuerySource) tableRef() string {
	return fmt.Sprintf("`%s.%s.%s`", s.client.ProjectID(), s.client.DatasetID(), s.table)
}

// Population leaves non-finite sums in place; scoring excludes those rows.
func (s *QuerySource) Population(ctx context.Context, sampleSize int) ([]yoy.RawAggregate, Mode, error) {
	rows := make([]yoy.RawAggregate, 0, max(sampleSize, 0))
	if sampleSize <= 0 {
		return rows, ModeWarehouse, nil
	}

	params := []cloudbigquery.QueryParameter{{Name: "limit", Value: int64(sampleSize)}}
	err := s.client.Query(ctx, fmt.Sprintf(populationSQL, s.tableRef()), params, func(iter bigquery.RowIterator) error {
		for {
			var row populationRow
			if err := iter.Next(&row); err != nil {
				if err == iterator.Done {
					return nil
				}
				return fmt.Errorf("reading population row: %w", err)
			}
			rows = append(rows, yoy.RawAggregate{
				CustomerID: row.CustomerID,
				CYSales:    floatOrZero(row.CYSales),
				PYSales:    floatOrZero(row.PYSales),
			})
		}
	})
	if err != nil {
		return nil, ModeWarehouse, unavailable("population", err)
	}
	return rows, ModeWarehouse, nil
}

// BundleInputs reads the five per-customer aggregates. A NaN or infinite
// sum is reported as ErrDataUnavailable so a fallback can take over.
func (s *QuerySource) BundleInputs(ctx context.Context, customerID string) (yoy.BundleInputs, Mode, error) {
	in, err := s.bundleInputs(ctx, customerID)
	if err != nil {
		return yoy.BundleInputs{}, ModeWarehouse, err
	}
	if err := yoy.ValidateBundle(in); err != nil {
		return yoy.BundleInputs{}, ModeWarehouse, unavailable("bundle_inputs", err)
	}
	return in, ModeWarehouse, nil
}

func (s *QuerySource) bundleInputs(ctx context.Context, customerID string) (yoy.BundleInputs, error) {
	params := []cloudbigquery.QueryParameter{{Name: "customerID", Value: customerID}}
	ref := s.tableRef()

	var in yoy.BundleInputs
	found := false
	err := s.client.Query(ctx, fmt.Sprintf(totalsSQL, ref), params, func(iter bigquery.RowIterator) error {
		var row totalsRow
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				return nil
			}
			return fmt.Errorf("reading totals row: %w", err)
		}
		found = true
		in.CYSales = floatOrZero(row.CYSales)
		in.PYSales = floatOrZero(row.PYSales)
		in.CYCOGS = floatOrZero(row.CYCOGS)
		in.PYCOGS = floatOrZero(row.PYCOGS)
		in.CYQtySold = floatOrZero(row.CYQty)
		in.CYReturnQty = floatOrZero(row.CYReturnQty)
		in.PYReturnQty = floatOrZero(row.PYReturnQty)
		return nil
	})
	if err != nil {
		return yoy.BundleInputs{}, unavailable("totals", err)
	}
	if !found {
		return yoy.BundleInputs{}, notFound(customerID)
	}

	in.LineItems = make([]yoy.LineItem, 0)
	err = s.client.Query(ctx, fmt.Sprintf(lineItemsSQL, ref), params, func(iter bigquery.RowIterator) error {
		for {
			var row lineItemRow
			if err := iter.Next(&row); err != nil {
				if err == iterator.Done {
					return nil
				}
				return fmt.Errorf("reading line item row: %w", err)
			}
			in.LineItems = append(in.LineItems, yoy.LineItem{
				Key:     row.Key,
				CYSales: floatOrZero(row.CYSales),
				PYSales: floatOrZero(row.PYSales),
				CYQty:   floatOrZero(row.CYQty),
				PYQty:   floatOrZero(row.PYQty),
			})
		}
	})
	if err != nil {
		return yoy.BundleInputs{}, unavailable("line_items", err)
	}

	in.Branches = make([]yoy.BranchSales, 0)
	err = s.client.Query(ctx, fmt.Sprintf(branchesSQL, ref), params, func(iter bigquery.RowIterator) error {
		for {
			var row branchRow
			if err := iter.Next(&row); err != nil {
				if err == iterator.Done {
					return nil
				}
				return fmt.Errorf("reading branch row: %w", err)
			}
			in.Branches = append(in.Branches, yoy.BranchSales{
				Branch:  row.Branch,
				CYSales: floatOrZero(row.CYSales),
				PYSales: floatOrZero(row.PYSales),
			})
		}
	})
	if err != nil {
		return yoy.BundleInputs{}, unavailable("branches", err)
	}

	in.Weeks = make([]yoy.WeekSales, 0)
	err = s.client.Query(ctx, fmt.Sprintf(weeksSQL, ref), params, func(iter bigquery.RowIterator) error {
		for {
			var row weekRow
			if err := iter.Next(&row); err != nil {
				if err == iterator.Done {
					return nil
				}
				return fmt.Errorf("reading week row: %w", err)
			}
			in.Weeks = append(in.Weeks, yoy.WeekSales{Week: row.Week, CYSales: floatOrZero(row.CYSales)})
		}
	})
	if err != nil {
		return yoy.BundleInputs{}, unavailable("weeks", err)
	}
	return in, nil
}

func floatOrZero(v cloudbigquery.NullFloat64) float64 {
	if !v.Valid {
		return 0
	}
	return v.Float64
}
