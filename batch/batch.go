// Package batch quotes many households from a CSV file.
//
// Input rows are read by header name; only monthly_bill and
// electricity_rate are required:
//
//	id,monthly_bill,electricity_rate,base_cost,batteries,preset,payment
//	smith,150,0.15,10,1,standard,finance
//
// Output has one row per input row, in input order. A row that cannot be
// quoted carries its error in the error column and zeros elsewhere.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/cheggaaa/pb.v1"

	"solarquote/calc"
)

var ErrBadHeader = errors.New("invalid batch header")

// OutputHeader is the first row Run writes.
var OutputHeader = []string{
	"id",
	"system_size_kw",
	"panels",
	"annual_production_kwh",
	"gross_cost",
	"net_cost",
	"monthly_payment",
	"total_savings",
	"error",
}

var requiredColumns = []string{"monthly_bill", "electricity_rate"}

type Options struct {
	// Workers defaults to runtime.NumCPU().
	Workers int
	// Progress receives a progress bar when set.
	Progress io.Writer
}

// Summary counts the rows Run wrote.
type Summary struct {
	Rows   int
	Failed int
}

type row struct {
	id  string
	req calc.QuoteRequest
	err error
}

type result struct {
	id    string
	quote calc.Quote
	err   error
}

// Run reads household rows from in, quotes them concurrently, and writes
// the results to out. Row failures are reported per row; Run itself fails
// only on unreadable input, write errors, or ctx cancellation.
func Run(ctx context.Context, c *calc.Calculator, in io.Reader, out io.Writer, opts Options) (Summary, error) {
	rows, err := readRows(in)
	if err != nil {
		return Summary{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(rows), 1))

	var bar *pb.ProgressBar
	if opts.Progress != nil {
		bar = pb.New(len(rows))
		bar.Output = opts.Progress
		bar.ShowTimeLeft = false
		bar.Start()
	}

	results := make([]result, len(rows))
	jobs := make(chan int, len(rows))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go worker(ctx, &wg, c, rows, jobs, results, bar)
	}

dispatch:
	for i := range rows {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if bar != nil {
		bar.FinishPrint(fmt.Sprintf("\t%d households quoted", len(rows)))
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	return write(out, results)
}

func worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	c *calc.Calculator,
	rows []row,
	jobs <-chan int,
	results []result,
	bar *pb.ProgressBar,
) {
	defer wg.Done()

	for i := range jobs {
		if ctx.Err() != nil {
			return
		}
		results[i] = quoteRow(c, rows[i])
		if bar != nil {
			bar.Increment()
		}
	}
}

func quoteRow(c *calc.Calculator, r row) result {
	if r.err != nil {
		return result{id: r.id, err: r.err}
	}
	req := r.req
	if req.System != nil {
		// Only batteries come from the file; panels are sized from usage.
		sizing, err := calc.Size(req.Usage)
		if err != nil {
			return result{id: r.id, err: err}
		}
		req.System = &calc.SystemConfiguration{Panels: sizing.Panels, Batteries: req.System.Batteries}
	}
	q, err := c.Quote(req)
	return result{id: r.id, quote: q, err: err}
}

func readRows(in io.Reader) ([]row, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read batch input: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrBadHeader)
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadHeader, name)
		}
	}

	rows := make([]row, 0, len(records)-1)
	for n, record := range records[1:] {
		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		r := parseRow(field)
		if r.id == "" {
			r.id = strconv.Itoa(n + 1)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func parseRow(field func(string) string) row {
	r := row{id: field("id"), req: calc.QuoteRequest{
		Incentives: calc.DefaultIncentives(),
		Preset:     field("preset"),
	}}

	var err error
	if r.req.Usage.MonthlyBill, err = parseFloat("monthly_bill", field("monthly_bill")); err != nil {
		r.err = err
		return r
	}
	if r.req.Usage.ElectricityRate, err = parseFloat("electricity_rate", field("electricity_rate")); err != nil {
		r.err = err
		return r
	}
	if v := field("base_cost"); v != "" {
		if r.req.Usage.BaseCost, err = parseFloat("base_cost", v); err != nil {
			r.err = err
			return r
		}
	}
	if v := field("batteries"); v != "" {
		batteries, err := strconv.Atoi(v)
		if err != nil {
			r.err = fmt.Errorf("%w: batteries %q is not a whole number", calc.ErrInvalidInput, v)
			return r
		}
		r.req.System = &calc.SystemConfiguration{Batteries: batteries}
	}
	if v := field("payment"); v != "" {
		if r.req.Payment, err = calc.ParsePaymentOption(v); err != nil {
			r.err = err
			return r
		}
	}
	return r
}

func parseFloat(name, value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("%w: %s is required", calc.ErrInvalidInput, name)
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", calc.ErrInvalidInput, name, value)
	}
	return v, nil
}

func write(out io.Writer, results []result) (Summary, error) {
	w := csv.NewWriter(out)
	if err := w.Write(OutputHeader); err != nil {
		return Summary{}, fmt.Errorf("write batch output: %w", err)
	}

	summary := Summary{Rows: len(results)}
	for _, res := range results {
		if res.err != nil {
			summary.Failed++
			if err := w.Write([]string{res.id, "0", "0", "0", "0", "0", "0", "0", res.err.Error()}); err != nil {
				return Summary{}, fmt.Errorf("write batch output: %w", err)
			}
			continue
		}
		q := res.quote
		payment := q.Loan.MonthlyPayment
		if q.Payment == calc.PaymentCash {
			payment = 0
		}
		record := []string{
			res.id,
			formatFloat(q.SystemSizeKW),
			strconv.Itoa(q.System.Panels),
			formatFloat(q.Production.AnnualKWh),
			formatFloat(q.Costs.GrossCost),
			formatFloat(q.Costs.NetCost),
			formatFloat(payment),
			formatFloat(q.Savings.TotalSavings),
			"",
		}
		if err := w.Write(record); err != nil {
			return Summary{}, fmt.Errorf("write batch output: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Summary{}, fmt.Errorf("write batch output: %w", err)
	}
	return summary, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
