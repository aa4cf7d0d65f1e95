package catalog

// report.go accumulates per-row outcomes into the final UploadReport.
// Outcomes arrive in input order; the report is only meaningful once
// every row has been classified.

type reportBuilder struct {
	report UploadReport
}

func newReportBuilder(total int) *reportBuilder {
	return &reportBuilder{report: UploadReport{Total: total, Errors: []RowError{}}}
}

func (b *reportBuilder) add(out RowOutcome) {
	switch out.Kind {
	case RowCreated:
		b.report.Created++
	case RowUpdated:
		b.report.Updated++
	case RowSkipped:
		b.report.Skipped++
		b.report.Errors = append(b.report.Errors, RowError{
			RowNumber: out.RowNumber,
			Key:       out.Key,
			Message:   out.Reason,
		})
	}
}

// build returns the completed report. The builder must not be used after.
func (b *reportBuilder) build() *UploadReport {
	return &b.report
}
