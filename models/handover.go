package models

import "time"

// HandoverRecord is one handover event. ID is assigned by the store on insert
// and records are never updated afterwards.
type HandoverRecord struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Date           time.Time `gorm:"column:date;type:date;not null" json:"date"`
	AccountNumber  string    `gorm:"column:account_number" json:"accountNumber"`
	Name           string    `gorm:"column:name" json:"name"`
	DocumentIndex1 string    `gorm:"column:document_index1" json:"documentIndex1"`
	DocumentIndex2 string    `gorm:"column:document_index2" json:"documentIndex2"`
	DocumentIndex3 string    `gorm:"column:document_index3" json:"documentIndex3"`
	DocumentIndex4 string    `gorm:"column:document_index4" json:"documentIndex4"`
	Information    string    `gorm:"column:information" json:"information"`
	Recipient      string    `gorm:"column:recipient" json:"recipient"`
	PhotoProof     string    `gorm:"column:photo_proof" json:"photoProof"`
	CreatedAt      time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// DateLayout is how the record date travels to stores that keep it as a
// plain calendar date.
const DateLayout = "2006-01-02"

// CalendarDate returns local midnight of the day t falls on in its own
// location. Stores hand dates back in whatever zone they keep them in; the
// picked day must survive that.
func CalendarDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// TableName is the single table holding handover rows.
const TableName = "handover_documents"

func (HandoverRecord) TableName() string { return TableName }

// Column describes a table column for setup instructions and DDL.
type Column struct {
	Name string
	Type string
}

// Columns lists the handover_documents columns in table order.
var Columns = []Column{
	{"id", "uuid, primary key"},
	{"date", "date"},
	{"account_number", "text"},
	{"name", "text"},
	{"document_index1", "text"},
	{"document_index2", "text"},
	{"document_index3", "text"},
	{"document_index4", "text"},
	{"information", "text"},
	{"recipient", "text"},
	{"photo_proof", "text"},
	{"created_at", "timestamp"},
}
