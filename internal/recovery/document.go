package recovery

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// DocumentVersion is embedded in the QR payload.
const DocumentVersion = 1

// Grid holds 12 words laid out as 3 rows of 4, read left to right.
type Grid [3][4]string

// QRPayload is the machine-readable part of a recovery document, letting a
// beneficiary unlock without typing the phrase.
type QRPayload struct {
	Mnemonic     string `json:"mnemonic"`
	VaultID      string `json:"vaultId"`
	DocumentID   string `json:"documentId"`
	ReleaseToken string `json:"releaseToken,omitempty"`
	Version      int    `json:"version"`
}

// Document is the printable recovery sheet.
type Document struct {
	ID        string
	VaultID   string
	CreatedAt time.Time
	GridA     Grid
	GridB     Grid
	QR        *QRPayload
}

// NewDocument lays the kit's phrase out as two grids. When withQR is set a
// QR payload carrying the phrase (and releaseToken, if any) is attached.
func NewDocument(kit *Kit, releaseToken string, withQR bool) (*Document, error) {
	a, b, err := SplitFragments(kit.Mnemonic)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ID:        uuid.NewString(),
		VaultID:   kit.VaultID,
		CreatedAt: time.Now().UTC(),
		GridA:     toGrid(a.Words),
		GridB:     toGrid(b.Words),
	}
	if withQR {
		doc.QR = &QRPayload{
			Mnemonic:     Normalize(kit.Mnemonic),
			VaultID:      kit.VaultID,
			DocumentID:   doc.ID,
			ReleaseToken: releaseToken,
			Version:      DocumentVersion,
		}
	}
	return doc, nil
}

func toGrid(words []string) Grid {
	var g Grid
	for i, w := range words {
		g[i/4][i%4] = w
	}
	return g
}

// Words returns the 24 words in order.
func (d *Document) Words() []string {
	out := make([]string, 0, WordCount)
	for _, g := range []Grid{d.GridA, d.GridB} {
		for _, row := range g {
			out = append(out, row[:]...)
		}
	}
	return out
}

// Render writes the human-readable sheet.
func (d *Document) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "RECOVERY DOCUMENT\n")
	fmt.Fprintf(tw, "Document:\t%s\n", d.ID)
	fmt.Fprintf(tw, "Vault:\t%s\n", d.VaultID)
	fmt.Fprintf(tw, "Created:\t%s\n\n", d.CreatedAt.Format(time.RFC3339))

	renderGrid(tw, "Fragment A (words 1-12)", d.GridA, 1)
	renderGrid(tw, "Fragment B (words 13-24)", d.GridB, FragmentWords+1)

	fmt.Fprintln(tw, "Keep the two fragments in different places. Either one alone cannot unlock the vault.")
	return tw.Flush()
}

func renderGrid(w io.Writer, title string, g Grid, start int) {
	fmt.Fprintln(w, title)
	for r, row := range g {
		cells := make([]string, len(row))
		for c, word := range row {
			cells[c] = fmt.Sprintf("%2d. %s", start+r*4+c, word)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
	}
	fmt.Fprintln(w)
}

// QRCode encodes the QR payload as a PNG of the given pixel size.
func (d *Document) QRCode(size int) ([]byte, error) {
	if d.QR == nil {
		return nil, fmt.Errorf("document has no QR payload: %w", common.ErrInvalidInput)
	}
	data, err := json.Marshal(d.QR)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, size)
}

// ParseQRPayload decodes a scanned payload and checks its phrase.
func ParseQRPayload(data []byte) (*QRPayload, error) {
	var p QRPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("qr payload: %w", common.ErrInvalidInput)
	}
	if p.Version != DocumentVersion {
		return nil, fmt.Errorf("unsupported qr payload version %d: %w", p.Version, common.ErrInvalidInput)
	}
	p.Mnemonic = Normalize(p.Mnemonic)
	if err := ValidateMnemonic(p.Mnemonic); err != nil {
		return nil, err
	}
	return &p, nil
}
