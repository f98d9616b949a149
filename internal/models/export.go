package models

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportKind selects the dataset rendered from a finished run.
type ExportKind string

const (
	ExportKindSchedule ExportKind = "schedule"
	ExportKindLoads    ExportKind = "loads"
)
