// Package export writes the loaded handover history as a spreadsheet or a
// PDF table for download.
package export

const (
	SpreadsheetFilename = "handover-documents.xlsx"
	DocumentFilename    = "handover-documents.pdf"

	SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	DocumentContentType    = "application/pdf"
)
