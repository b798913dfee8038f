// Package certificate composes the printable certificate page: a themed,
// ordered list of draw instructions that a PDF backend renders verbatim.
//
// The composer is backend-agnostic. It decides what goes where on the page;
// glyph metrics come in through a layout.MeasureFunc and images are
// referenced by asset path only.
package certificate

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"pintcert/internal/eventconfig"
	"pintcert/internal/hours"
	"pintcert/internal/layout"
	"pintcert/internal/privacy"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

// Page geometry in PDF points, A4 landscape. The origin is the top-left
// corner with y growing downward; the renderer translates as needed.
const (
	pageWidth  = 842.0
	pageHeight = 595.0

	sidebarWidth = 180.0
	textLeft     = 230.0
	textRight    = 800.0
	textWidth    = textRight - textLeft

	titleSize = 28.0
	bodySize  = 16.0
	lineStep  = bodySize * 1.5

	titleY = 150.0
	bodyY  = 230.0

	logoX, logoY, logoW, logoH             = 30.0, 40.0, 120.0, 120.0
	signatureX, signatureY, signW, signH   = 460.0, 460.0, 160.0, 60.0
	sponsorX, sponsorY, sponsorW, sponsorH = 680.0, 470.0, 120.0, 50.0

	footerY = 570.0
)

// PageSize is the page extent in points.
type PageSize struct {
	Width  float64
	Height float64
}

// DrawOp is one rendering instruction. Concrete types: RectOp, ImageOp,
// TextOp.
type DrawOp interface {
	isDrawOp()
}

// RectOp fills a rectangle with a solid color.
type RectOp struct {
	X, Y, W, H float64
	Color      string
}

// ImageOp places an image asset inside a rectangle.
type ImageOp struct {
	X, Y, W, H float64
	Path       string
}

// TextOp draws one styled text fragment at a position.
type TextOp struct {
	X, Y  float64
	Text  string
	Bold  bool
	Color string
	Size  float64
}

func (RectOp) isDrawOp()  {}
func (ImageOp) isDrawOp() {}
func (TextOp) isDrawOp()  {}

// Page is the finished certificate description.
type Page struct {
	Size PageSize
	Ops  []DrawOp
	// VerifyURL is the public verification link printed in the footer,
	// carrying the participant's signature as a query parameter.
	VerifyURL string
}

// Input carries everything the composer needs for one certificate. Name and
// email arrive encrypted; the composer decrypts them itself.
type Input struct {
	ParticipantID  id.ParticipantID
	EventID        id.EventID
	EncryptedName  []byte
	EncryptedEmail []byte
	// Signature is the participant's stored validation signature. The
	// caller ensures it exists before composing.
	Signature string

	EventName          string
	Year               int
	CalendarDates      []string
	RoleID             id.RoleID
	RoleName           string
	CityName           string
	ParticipationDates []string
}

// Composer builds certificate pages.
type Composer struct {
	resolver    *eventconfig.Resolver
	privacy     *privacy.Service
	hours       *hours.Calculator
	measure     layout.MeasureFunc
	verifyBase  string
	assetExists func(path string) bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithMeasure overrides the default Helvetica-approximation metrics.
func WithMeasure(measure layout.MeasureFunc) Option {
	return func(c *Composer) { c.measure = measure }
}

// WithAssetChecker overrides how the composer decides whether an image
// asset is present. Defaults to an os.Stat check.
func WithAssetChecker(exists func(path string) bool) Option {
	return func(c *Composer) { c.assetExists = exists }
}

// NewComposer builds a Composer. verifyBase is the public base URL of the
// verification endpoint, e.g. "https://certificados.example.org/verify".
func NewComposer(resolver *eventconfig.Resolver, privacySvc *privacy.Service, calc *hours.Calculator, verifyBase string, opts ...Option) *Composer {
	c := &Composer{
		resolver:   resolver,
		privacy:    privacySvc,
		hours:      calc,
		verifyBase: verifyBase,
		assetExists: func(path string) bool {
			_, err := os.Stat(path)
			return err == nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.measure == nil {
		c.measure = Measure(bodySize)
	}
	return c
}

// Compose builds the page for one participant. A record whose ciphertext
// cannot be opened is reported as unprocessable; it never produces a page
// with garbage fields.
func (c *Composer) Compose(ctx context.Context, in Input) (Page, error) {
	name, err := c.privacy.Decrypt(in.EncryptedName)
	if err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "cannot decrypt participant name")
	}
	if _, err := c.privacy.Decrypt(in.EncryptedEmail); err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "cannot decrypt participant email")
	}

	cfg, _ := c.resolver.Resolve(ctx, in.Year)
	credited, _ := c.hours.Credit(ctx, in.ParticipationDates, in.CalendarDates, in.Year, in.RoleID)

	page := Page{
		Size:      PageSize{Width: pageWidth, Height: pageHeight},
		VerifyURL: c.verifyURL(in.Signature),
	}

	// Sidebar band in the primary theme color.
	page.Ops = append(page.Ops, RectOp{X: 0, Y: 0, W: sidebarWidth, H: pageHeight, Color: cfg.Colors[0]})

	// Optional images: missing assets are skipped, never an error.
	page.Ops = c.appendImage(page.Ops, cfg.Images.Logo, logoX, logoY, logoW, logoH)

	page.Ops = append(page.Ops, TextOp{
		X: textLeft, Y: titleY,
		Text: "CERTIFICADO", Bold: true, Color: cfg.Colors[1], Size: titleSize,
	})

	runs := narrativeRuns(cfg, name, in, credited)
	y := bodyY
	for _, line := range layout.Flow(runs, textWidth, c.measure) {
		x := textLeft
		for _, frag := range line {
			page.Ops = append(page.Ops, TextOp{
				X: x, Y: y,
				Text: frag.Text, Bold: frag.Bold, Color: frag.Color, Size: bodySize,
			})
			x += c.measure(frag.Text, frag.Bold)
		}
		y += lineStep
	}

	page.Ops = c.appendImage(page.Ops, cfg.Images.Signature, signatureX, signatureY, signW, signH)
	page.Ops = c.appendImage(page.Ops, cfg.Images.Sponsor, sponsorX, sponsorY, sponsorW, sponsorH)

	page.Ops = append(page.Ops, TextOp{
		X: textLeft, Y: footerY,
		Text: "Valide este certificado em " + page.VerifyURL,
		Color: cfg.Colors[2], Size: 9,
	})

	return page, nil
}

func (c *Composer) verifyURL(signature string) string {
	return c.verifyBase + "?signature=" + url.QueryEscape(signature)
}

func (c *Composer) appendImage(ops []DrawOp, path string, x, y, w, h float64) []DrawOp {
	if path == "" || !c.assetExists(path) {
		return ops
	}
	return append(ops, ImageOp{X: x, Y: y, W: w, H: h, Path: path})
}

// narrativeRuns builds the certificate sentence: literal connective text in
// the theme text color, participant-specific values in bold accent.
func narrativeRuns(cfg eventconfig.YearConfig, name string, in Input, credited int) []layout.Run {
	plain := cfg.Colors[2]
	accent := cfg.Colors[3]

	event := in.EventName
	if event == "" {
		event = fmt.Sprintf("Pint of Science Brasil %d", in.Year)
	}

	return []layout.Run{
		{Text: "Certificamos que ", Color: plain},
		{Text: name, Bold: true, Color: accent},
		{Text: " participou do evento ", Color: plain},
		{Text: event, Bold: true, Color: accent},
		{Text: " como ", Color: plain},
		{Text: in.RoleName, Bold: true, Color: accent},
		{Text: " na cidade de ", Color: plain},
		{Text: in.CityName, Bold: true, Color: accent},
		{Text: " nos dias ", Color: plain},
		{Text: formatDates(in.ParticipationDates), Bold: true, Color: accent},
		{Text: ", com carga horária de ", Color: plain},
		{Text: fmt.Sprintf("%d horas", credited), Bold: true, Color: accent},
		{Text: ".", Color: plain},
	}
}

// formatDates renders calendar dates as DD/MM/YYYY, the format printed on
// the certificate. A date that does not parse is printed as stored.
func formatDates(dates []string) string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			out = append(out, t.Format("02/01/2006"))
		} else {
			out = append(out, d)
		}
	}
	return strings.Join(out, ", ")
}
