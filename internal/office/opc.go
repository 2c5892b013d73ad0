package office

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"

	"github.com/rickcedwhat/assignment-checker/internal/model"
)

// corePropsPath is the OPC part holding the standardized core properties.
const corePropsPath = "docProps/core.xml"

// coreProperties maps the two identity fields out of docProps/core.xml.
// Unqualified tags match by local name, so the usual dc:/cp: prefixes and any
// namespace declarations are accepted on read.
type coreProperties struct {
	XMLName        xml.Name `xml:"coreProperties"`
	Creator        string   `xml:"creator"`
	LastModifiedBy string   `xml:"lastModifiedBy"`
}

// Namespaces the two identity elements belong to. When a property has to be
// inserted, the element's prefix comes from whichever declaration the
// document binds to these URIs.
const (
	dcNamespace        = "http://purl.org/dc/elements/1.1/"
	corePropsNamespace = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
)

// Office emits core.xml with the dc and cp prefixes, but other producers
// bind their own, so the patterns accept any prefix (or none) and patching
// keeps the spelling the document already uses, matching the local-name
// policy of the decode side.
var (
	creatorElementRe = coreElementRe("creator")
	lastModElementRe = coreElementRe("lastModifiedBy")
	corePropsCloseRe = regexp.MustCompile(`</(?:[A-Za-z_][\w.-]*:)?coreProperties\s*>`)
)

// coreElementRe matches a whole element with the given local name under any
// prefix, capturing the qualified name as it appears in the document.
func coreElementRe(local string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)<((?:[A-Za-z_][\w.-]*:)?` + local + `)(?:\s[^>]*)?(?:/>|>.*?</(?:[A-Za-z_][\w.-]*:)?` + local + `\s*>)`)
}

// opcEntry is one archive part, kept verbatim in original order.
type opcEntry struct {
	name string
	data []byte
}

// opcDocument is the word-processing/presentation container variant. Both
// formats are OPC zip packages that keep identity metadata in the same
// docProps/core.xml part, so a single codec serves .docx and .pptx.
//
// Decoding keeps every archive part in memory untouched; SetIdentity patches
// only the two identity elements inside core.xml, which is what guarantees
// that re-encoding preserves all other document content byte for byte.
type opcDocument struct {
	kind     Kind
	entries  []opcEntry
	coreIdx  int
	identity model.IdentityMetadata

	// setErr records a patch failure from SetIdentity, which has no error
	// return; Encode surfaces it so a lost update can never look successful.
	setErr error
}

func decodeOPC(kind Kind, data []byte) (*opcDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	doc := &opcDocument{kind: kind, coreIdx: -1}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open part %s: %v", ErrCorruptDocument, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read part %s: %v", ErrCorruptDocument, f.Name, err)
		}
		if f.Name == corePropsPath {
			doc.coreIdx = len(doc.entries)
		}
		doc.entries = append(doc.entries, opcEntry{name: f.Name, data: content})
	}
	if doc.coreIdx < 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrCorruptDocument, corePropsPath)
	}

	var props coreProperties
	if err := xml.Unmarshal(doc.entries[doc.coreIdx].data, &props); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrCorruptDocument, corePropsPath, err)
	}
	doc.identity = model.IdentityMetadata{
		Author:         props.Creator,
		LastModifiedBy: props.LastModifiedBy,
	}
	return doc, nil
}

func (d *opcDocument) Kind() Kind { return d.kind }

func (d *opcDocument) Identity() model.IdentityMetadata { return d.identity }

func (d *opcDocument) SetIdentity(upd model.IdentityUpdate) {
	core := d.entries[d.coreIdx].data
	if upd.Author != nil {
		patched, err := patchCoreElement(core, creatorElementRe, "creator", dcNamespace, *upd.Author)
		if err != nil {
			d.setErr = err
			return
		}
		core = patched
		d.identity.Author = *upd.Author
	}
	if upd.LastModifiedBy != nil {
		patched, err := patchCoreElement(core, lastModElementRe, "lastModifiedBy", corePropsNamespace, *upd.LastModifiedBy)
		if err != nil {
			d.setErr = err
			return
		}
		core = patched
		d.identity.LastModifiedBy = *upd.LastModifiedBy
	}
	d.entries[d.coreIdx].data = core
}

// patchCoreElement replaces an existing element in core.xml, keeping the
// qualified name the document spells it with, or inserts it before the
// closing root tag when the document never set the property. It fails rather
// than leaving core.xml silently unmodified.
func patchCoreElement(core []byte, re *regexp.Regexp, local, namespace, value string) ([]byte, error) {
	if loc := re.FindSubmatchIndex(core); loc != nil {
		qname := string(core[loc[2]:loc[3]])
		element := fmt.Sprintf("<%s>%s</%s>", qname, xmlEscape(value), qname)
		return spliceBytes(core, loc[0], loc[1], element), nil
	}

	prefix, ok := namespacePrefix(core, namespace)
	if !ok {
		return nil, fmt.Errorf("cannot insert %s: %s declares no prefix for %s", local, corePropsPath, namespace)
	}
	qname := local
	if prefix != "" {
		qname = prefix + ":" + local
	}
	closeLoc := corePropsCloseRe.FindIndex(core)
	if closeLoc == nil {
		return nil, fmt.Errorf("cannot insert %s: no closing coreProperties tag in %s", local, corePropsPath)
	}
	element := fmt.Sprintf("<%s>%s</%s>", qname, xmlEscape(value), qname)
	return spliceBytes(core, closeLoc[0], closeLoc[0], element), nil
}

// namespacePrefix finds the prefix the document binds to the namespace URI.
// An empty prefix with ok=true means it is the default namespace.
func namespacePrefix(core []byte, namespace string) (string, bool) {
	re := regexp.MustCompile(`xmlns(?::([A-Za-z_][\w.-]*))?\s*=\s*"` + regexp.QuoteMeta(namespace) + `"`)
	m := re.FindSubmatch(core)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

func spliceBytes(b []byte, start, end int, insert string) []byte {
	out := make([]byte, 0, len(b)-(end-start)+len(insert))
	out = append(out, b[:start]...)
	out = append(out, insert...)
	out = append(out, b[end:]...)
	return out
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func (d *opcDocument) Encode() ([]byte, error) {
	if d.setErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, d.setErr)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range d.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("%w: create part %s: %v", ErrEncodeFailed, e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("%w: write part %s: %v", ErrEncodeFailed, e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return buf.Bytes(), nil
}

func (d *opcDocument) Close() error { return nil }
