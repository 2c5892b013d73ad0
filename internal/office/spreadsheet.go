package office

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rickcedwhat/assignment-checker/internal/model"
)

// spreadsheetDocument is the workbook container variant, backed by excelize.
// The spreadsheet format names its author property "creator"; this variant
// maps it to the normalized author field in both directions.
type spreadsheetDocument struct {
	f *excelize.File

	// setErr records a failed property write so it can surface from Encode,
	// keeping SetIdentity's in-place mutation contract.
	setErr error
}

func decodeSpreadsheet(data []byte) (*spreadsheetDocument, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return &spreadsheetDocument{f: f}, nil
}

func (d *spreadsheetDocument) Kind() Kind { return SpreadsheetDocument }

func (d *spreadsheetDocument) Identity() model.IdentityMetadata {
	props, err := d.f.GetDocProps()
	if err != nil || props == nil {
		return model.IdentityMetadata{}
	}
	return model.IdentityMetadata{
		Author:         props.Creator,
		LastModifiedBy: props.LastModifiedBy,
	}
}

func (d *spreadsheetDocument) SetIdentity(upd model.IdentityUpdate) {
	if upd.IsZero() {
		return
	}
	props, err := d.f.GetDocProps()
	if err != nil {
		d.setErr = err
		return
	}
	if props == nil {
		props = &excelize.DocProperties{}
	}
	if upd.Author != nil {
		props.Creator = *upd.Author
	}
	if upd.LastModifiedBy != nil {
		props.LastModifiedBy = *upd.LastModifiedBy
	}
	if err := d.f.SetDocProps(props); err != nil {
		d.setErr = err
	}
}

func (d *spreadsheetDocument) Encode() ([]byte, error) {
	if d.setErr != nil {
		return nil, fmt.Errorf("%w: set doc props: %v", ErrEncodeFailed, d.setErr)
	}
	buf, err := d.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return buf.Bytes(), nil
}

func (d *spreadsheetDocument) Close() error { return d.f.Close() }
